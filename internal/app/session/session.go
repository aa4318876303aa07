package session

import (
	"context"
	"errors"

	"LockIn/internal/adapter/augmentos"
	"LockIn/internal/service/assets"
	"LockIn/internal/service/deferred"
	"LockIn/internal/service/lockin"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrDisconnected — транспорт закрыл поток событий.
	ErrDisconnected = errors.New("session: соединение закрыто")
	// ErrStopped — сессия остановлена по stop_request.
	ErrStopped = errors.New("session: остановлена")
	// ErrReplaced — пришёл новый session_request с тем же id.
	ErrReplaced = errors.New("session: заменена новой")
	// ErrShutdown — остановка процесса.
	ErrShutdown = errors.New("session: завершение работы сервера")
)

// Connection — транспорт сессии: входящие события и команды дисплея.
type Connection interface {
	Events() <-chan augmentos.Event
	lockin.Display
	Close() error
}

// Request описывает запрос облака на начало сессии.
type Request struct {
	SessionID    string
	UserID       string
	WebsocketURL string // пусто — используется адрес из конфига
}

// Options — общие для всех сессий параметры.
type Options struct {
	Images      assets.Images
	WelcomeText string
	Clock       deferred.Clock // nil — реальное время
}

// Session — одна сессия очков. Все события и срабатывания таймера
// обрабатываются последовательно в горутине Run.
type Session struct {
	req     Request
	runID   string
	conn    Connection
	opts    Options
	machine *lockin.Machine
	logger  *zap.SugaredLogger

	// Единая FIFO-очередь цикла: события транспорта и срабатывания таймера.
	tasks chan func() error
	done  chan struct{}
}

func New(req Request, conn Connection, opts Options, logger *zap.SugaredLogger) *Session {
	s := &Session{
		req:   req,
		runID: uuid.NewString(),
		conn:  conn,
		opts:  opts,
		tasks: make(chan func() error, 8),
		done:  make(chan struct{}),
	}
	s.logger = logger.With("sessionId", req.SessionID, "userId", req.UserID, "runId", s.runID)
	s.machine = lockin.New(conn, opts.Images, deferred.NewSlot(opts.Clock, s.post), s.logger)
	return s
}

// enqueue ставит задачу в очередь цикла сессии. После завершения Run задача отбрасывается.
func (s *Session) enqueue(f func() error) {
	select {
	case s.tasks <- f:
	case <-s.done:
	}
}

func (s *Session) post(f func()) {
	s.enqueue(func() error { f(); return nil })
}

// Done закрывается, когда Run завершился и ресурсы сессии освобождены.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) ID() string { return s.req.SessionID }

// Run обрабатывает события сессии до отмены ctx, остановки или разрыва соединения.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.teardown()

	s.machine.Reset()
	s.logger.Infow("Session started")
	if s.opts.WelcomeText != "" {
		if err := s.conn.ShowTextWall(s.opts.WelcomeText, lockin.TextWallOptions{}); err != nil {
			s.logger.Warnw("Failed to show welcome text", "error", err)
		}
	}

	go s.pump()
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case f := <-s.tasks:
			if err := f(); err != nil {
				return err
			}
		}
	}
}

// pump перекладывает события транспорта в очередь цикла в порядке поступления.
func (s *Session) pump() {
	events := s.conn.Events()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-events:
			if !ok {
				s.enqueue(func() error { return ErrDisconnected })
				return
			}
			s.enqueue(func() error { return s.handle(ev) })
		}
	}
}

func (s *Session) handle(ev augmentos.Event) error {
	switch ev.Kind {
	case augmentos.EventTranscription:
		if ev.Transcription.IsFinal {
			s.logger.Debugw("Final transcription", "text", ev.Transcription.Text)
		}
		s.machine.HandleTranscription(ev.Transcription)
	case augmentos.EventNotification, augmentos.EventBattery:
		s.logger.Debugw("Stream event ignored", "kind", ev.Kind.String(), "bytes", len(ev.Raw))
	case augmentos.EventError:
		s.logger.Errorw("AugmentOS error", "message", ev.Message)
	case augmentos.EventStopped:
		s.logger.Infow("Session stopped by cloud", "reason", ev.Message)
		return ErrStopped
	}
	return nil
}

// State возвращает снимок состояния автомата, выполняя запрос в цикле сессии.
func (s *Session) State(ctx context.Context) (lockin.State, error) {
	reply := make(chan lockin.State, 1)
	select {
	case s.tasks <- func() error { reply <- s.machine.State(); return nil }:
	case <-s.done:
		return lockin.State{}, ErrDisconnected
	case <-ctx.Done():
		return lockin.State{}, context.Cause(ctx)
	}
	select {
	case st := <-reply:
		return st, nil
	case <-s.done:
		return lockin.State{}, ErrDisconnected
	case <-ctx.Done():
		return lockin.State{}, context.Cause(ctx)
	}
}

func (s *Session) teardown() {
	s.machine.Close()
	if err := s.conn.Close(); err != nil {
		s.logger.Debugw("Connection close error", "error", err)
	}
	s.logger.Infow("Session ended")
}
