package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/auravoice/aura-core/config"
)

const shutdownTimeout = 10 * time.Second

// Server hosts the voice session endpoint plus the health and metrics
// surface around it.
type Server struct {
	cfg    config.Config
	logger *slog.Logger

	store          *SessionStore
	archive        *Archive
	metrics        *sessionMetrics
	collaborators  Collaborators
	metricsHandler http.Handler
	upgrader       websocket.Upgrader

	baseCtx  context.Context
	sessions sync.WaitGroup
	ready    atomic.Bool
}

type Option func(*Server)

// WithCollaborators replaces the vendor clients sessions are built from.
func WithCollaborators(collaborators Collaborators) Option {
	return func(s *Server) {
		s.collaborators = collaborators
	}
}

func New(cfg config.Config, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		store:   NewSessionStore(cfg.Session.Retention()),
		archive: &Archive{clock: time.Now},
		baseCtx: context.Background(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully: the
// listener stops, live sessions wind down and the archive closes.
func (s *Server) Run(ctx context.Context) error {
	shutdownTelemetry, metricsHandler, err := setupTelemetry(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			s.logger.Warn("failed to shut down telemetry", slog.String("error", err.Error()))
		}
	}()
	s.metricsHandler = metricsHandler

	metrics, err := newSessionMetrics()
	if err != nil {
		return fmt.Errorf("failed to register session metrics: %w", err)
	}
	s.metrics = metrics

	archive, err := OpenArchive(ctx, s.cfg.Archive, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open session archive: %w", err)
	}
	s.archive = archive
	defer func() {
		if err := archive.Close(); err != nil {
			s.logger.Warn("failed to close session archive", slog.String("error", err.Error()))
		}
	}()

	s.baseCtx = ctx

	httpServer := &http.Server{
		Addr:              s.cfg.HTTP.Addr(),
		Handler:           otelhttp.NewHandler(s.routes(), "aura-core"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			slog.String("addr", httpServer.Addr),
			slog.String("environment", s.cfg.Environment))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	s.ready.Store(true)

	select {
	case err := <-serveErr:
		s.ready.Store(false)
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.ready.Store(false)
	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	// WebSocket sessions are hijacked connections; Shutdown does not wait
	// for them. They close themselves once ctx is cancelled.
	s.sessions.Wait()

	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/voice", s.handleVoice)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	return mux
}

// handleVoice upgrades the connection and runs the session to completion on
// the handler goroutine. The session lives on the server's base context, not
// the request context, so an upgrade's request deadline cannot end it.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade voice connection", slog.String("error", err.Error()))
		return
	}

	logger := s.logger.With(slog.String("session_id", sessionID))
	session := newLiveSession(sessionID, s.cfg, logger, conn, s.store, s.archive, s.metrics, s.collaborators)

	s.sessions.Add(1)
	defer s.sessions.Done()
	session.run(s.baseCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
