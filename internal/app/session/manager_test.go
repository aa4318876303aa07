package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LockIn/internal/service/lockin"

	"go.uber.org/zap/zaptest"
)

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) dial(_ context.Context, _ Request) (Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

func newTestManager(t *testing.T) (*Manager, *fakeDialer) {
	t.Helper()
	d := &fakeDialer{}
	m := NewManager(context.Background(), d.dial, testOpts, zaptest.NewLogger(t).Sugar())
	t.Cleanup(m.Shutdown)
	return m, d
}

func managerState(t *testing.T, m *Manager, id string) lockin.State {
	t.Helper()
	st, ok, err := m.State(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("State(%s) = ok:%v err:%v", id, ok, err)
	}
	return st
}

func TestManagerStartAndStop(t *testing.T) {
	m, d := newTestManager(t)

	if err := m.Start(context.Background(), Request{SessionID: "a", UserID: "u"}); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}

	if !m.Stop("a") {
		t.Fatal("Stop must find the session")
	}
	if m.Len() != 0 {
		t.Errorf("Len after Stop = %d", m.Len())
	}
	if d.conn(0).closeCount() != 1 {
		t.Error("connection must be closed on Stop")
	}
	if m.Stop("a") {
		t.Error("second Stop must report false")
	}
}

func TestManagerDialError(t *testing.T) {
	m, d := newTestManager(t)
	d.err = errors.New("refused")

	if err := m.Start(context.Background(), Request{SessionID: "a"}); err == nil {
		t.Fatal("expected dial error")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after failed dial", m.Len())
	}
	if err := m.Start(context.Background(), Request{}); err == nil {
		t.Error("expected error for empty session id")
	}
}

func TestManagerRestartResetsState(t *testing.T) {
	m, d := newTestManager(t)
	ctx := context.Background()

	if err := m.Start(ctx, Request{SessionID: "a"}); err != nil {
		t.Fatal(err)
	}
	first := d.conn(0)
	first.events <- transcript("turn on lock in", true)
	first.events <- transcript("deep work", true)

	deadline := time.Now().Add(2 * time.Second)
	for !managerState(t, m, "a").TimerPending {
		if time.Now().After(deadline) {
			t.Fatal("first session never armed its timer")
		}
		time.Sleep(time.Millisecond)
	}

	if err := m.Start(ctx, Request{SessionID: "a"}); err != nil {
		t.Fatal(err)
	}
	if first.closeCount() != 1 {
		t.Error("replaced session must be torn down")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
	if st := managerState(t, m, "a"); st != (lockin.State{}) {
		t.Errorf("restarted session state = %+v, want defaults", st)
	}
}

func TestManagerRemovesEndedSession(t *testing.T) {
	m, d := newTestManager(t)
	if err := m.Start(context.Background(), Request{SessionID: "a"}); err != nil {
		t.Fatal(err)
	}
	close(d.conn(0).events)

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("disconnected session was not removed")
		}
		time.Sleep(time.Millisecond)
	}
	if _, ok, _ := m.State(context.Background(), "a"); ok {
		t.Error("State must report a missing session")
	}
}

func TestManagerShutdown(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(context.Background(), d.dial, Options{}, zaptest.NewLogger(t).Sugar())
	for _, id := range []string{"a", "b", "c"} {
		if err := m.Start(context.Background(), Request{SessionID: id}); err != nil {
			t.Fatal(err)
		}
	}
	m.Shutdown()
	if m.Len() != 0 {
		t.Errorf("Len after Shutdown = %d", m.Len())
	}
	for i := range 3 {
		if d.conn(i).closeCount() != 1 {
			t.Errorf("conn %d not closed", i)
		}
	}
}
