package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"LockIn/internal/app/session"
	"LockIn/internal/service/events"

	"go.uber.org/zap"
)

// Ensure interface compliance
var _ events.EventServer = (*Server)(nil)

const (
	typeSessionRequest = "session_request"
	typeStopRequest    = "stop_request"

	maxBodyBytes = 1 << 20
)

// Sessions — то, что webhook умеет делать с сессиями.
type Sessions interface {
	Start(ctx context.Context, req session.Request) error
	Stop(sessionID string) bool
	Len() int
}

// Config параметры webhook-сервера.
type Config struct {
	BindAddr    string
	Path        string
	PackageName string
}

type request struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId"`
	UserID       string `json:"userId"`
	WebsocketURL string `json:"augmentOSWebsocketUrl"`
	Reason       string `json:"reason"`
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Server принимает session_request/stop_request от облака AugmentOS.
type Server struct {
	cfg      Config
	sessions Sessions
	srv      *http.Server
	logger   *zap.SugaredLogger
	running  atomic.Bool
}

func New(cfg Config, sessions Sessions, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "0.0.0.0:3000"
	}
	if cfg.Path == "" {
		cfg.Path = "/webhook"
	}
	s := &Server{cfg: cfg, sessions: sessions, logger: logger}

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler возвращает маршруты сервера (используется и в тестах).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	go func() {
		s.logger.Infow("Webhook server listening", "addr", s.srv.Addr, "path", s.cfg.Path)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("Webhook server stopped with error", "error", err)
		} else {
			s.logger.Infow("Webhook server stopped")
		}
	}()

	// Watch for context cancellation to stop the server
	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("webhook-server shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

func (s *Server) Addr() string { return s.cfg.BindAddr }

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed; use POST", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Message: "invalid json"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Message: "missing sessionId"})
		return
	}

	switch req.Type {
	case typeSessionRequest:
		s.logger.Infow("Session request received", "sessionId", req.SessionID, "userId", req.UserID)
		err := s.sessions.Start(r.Context(), session.Request{
			SessionID:    req.SessionID,
			UserID:       req.UserID,
			WebsocketURL: req.WebsocketURL,
		})
		if err != nil {
			s.logger.Errorw("Failed to start session", "sessionId", req.SessionID, "error", err)
			writeJSON(w, http.StatusBadGateway, response{Status: "error", Message: err.Error()})
			return
		}
	case typeStopRequest:
		found := s.sessions.Stop(req.SessionID)
		s.logger.Infow("Stop request received", "sessionId", req.SessionID, "reason", req.Reason, "found", found)
	default:
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Message: "unknown request type"})
		return
	}
	writeJSON(w, http.StatusOK, response{Status: "success"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed; use GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"app":      s.cfg.PackageName,
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
