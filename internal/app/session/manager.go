package session

import (
	"context"
	"errors"
	"sync"

	"LockIn/internal/service/lockin"

	"go.uber.org/zap"
)

// Dialer открывает транспорт для новой сессии.
type Dialer func(ctx context.Context, req Request) (Connection, error)

type entry struct {
	s      *Session
	cancel context.CancelCauseFunc
}

// Manager хранит активные сессии по sessionId.
type Manager struct {
	base   context.Context
	dial   Dialer
	opts   Options
	logger *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*entry
	wg       sync.WaitGroup
}

// NewManager создаёт менеджер. Сессии живут в контексте base, а не запроса,
// который их создал.
func NewManager(base context.Context, dial Dialer, opts Options, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		base:     base,
		dial:     dial,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*entry),
	}
}

// Start подключается и запускает сессию. Прежняя сессия с тем же id
// завершается до старта новой.
func (m *Manager) Start(ctx context.Context, req Request) error {
	if req.SessionID == "" {
		return errors.New("session: пустой sessionId")
	}
	conn, err := m.dial(ctx, req)
	if err != nil {
		return err
	}

	s := New(req, conn, m.opts, m.logger)
	sctx, cancel := context.WithCancelCause(m.base)
	e := &entry{s: s, cancel: cancel}

	m.mu.Lock()
	old := m.sessions[req.SessionID]
	m.sessions[req.SessionID] = e
	m.wg.Add(1)
	m.mu.Unlock()

	if old != nil {
		m.logger.Infow("Replacing existing session", "sessionId", req.SessionID)
		old.cancel(ErrReplaced)
		<-old.s.Done()
	}

	go func() {
		defer m.wg.Done()
		err := s.Run(sctx)
		cancel(nil)
		m.remove(req.SessionID, e)
		if err != nil && !errors.Is(err, ErrStopped) && !errors.Is(err, ErrReplaced) && !errors.Is(err, ErrShutdown) {
			m.logger.Warnw("Session finished", "sessionId", req.SessionID, "reason", err)
		}
	}()
	return nil
}

// Stop завершает сессию и ждёт освобождения её ресурсов. false — сессии нет.
func (m *Manager) Stop(sessionID string) bool {
	m.mu.Lock()
	e := m.sessions[sessionID]
	m.mu.Unlock()
	if e == nil {
		return false
	}
	e.cancel(ErrStopped)
	<-e.s.Done()
	m.remove(sessionID, e)
	return true
}

// State возвращает снимок состояния сессии.
func (m *Manager) State(ctx context.Context, sessionID string) (lockin.State, bool, error) {
	m.mu.Lock()
	e := m.sessions[sessionID]
	m.mu.Unlock()
	if e == nil {
		return lockin.State{}, false, nil
	}
	st, err := e.s.State(ctx)
	return st, true, err
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown останавливает все сессии и ждёт их завершения.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, e := range m.sessions {
		e.cancel(ErrShutdown)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// remove удаляет запись, только если её ещё не заменили.
func (m *Manager) remove(id string, e *entry) {
	m.mu.Lock()
	if m.sessions[id] == e {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
}
