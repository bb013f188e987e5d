// Package ui provides the browser viewer for parquet files.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/session"
	viewerFeature "github.com/leapstack-labs/pqview/internal/ui/features/viewer"
	"github.com/leapstack-labs/pqview/internal/ui/notifier"
	"github.com/leapstack-labs/pqview/internal/ui/router"
)

// Server is the main UI server.
type Server struct {
	sessions     *session.Manager
	sessionStore *sessions.CookieStore
	notifier     *notifier.Notifier
	port         int
	viewer       viewerFeature.Options
	logger       *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Decoder        decode.Decoder
	Port           int
	SessionSecret  string
	SessionTTL     time.Duration
	PageSize       int
	MaxUploadBytes int64
	Locale         language.Tag
	Logger         *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(int(max(cfg.SessionTTL, session.DefaultTTL).Seconds()))
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	notify := notifier.New()

	return &Server{
		sessions: session.NewManager(session.Options{
			Decoder:  cfg.Decoder,
			TTL:      cfg.SessionTTL,
			PageSize: cfg.PageSize,
			Locale:   cfg.Locale,
			Logger:   cfg.Logger,
			OnChange: notify.Broadcast,
		}),
		sessionStore: sessionStore,
		notifier:     notify,
		port:         cfg.Port,
		viewer: viewerFeature.Options{
			Locale:         cfg.Locale,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Logger:         cfg.Logger,
		},
		logger: cfg.Logger,
	}
}

// Handler builds the HTTP handler with middleware and all routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.sessions, s.sessionStore, s.notifier, s.viewer); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
// ready, if non-nil, receives the bound address once the listener is open.
func (s *Server) Serve(ctx context.Context, ready func(addr string)) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	addr := fmt.Sprintf("http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)
	s.logger.Info("starting UI server", "addr", addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Evict idle sessions
	eg.Go(func() error {
		return s.sessions.Run(egctx)
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	if ready != nil {
		ready(addr)
	}

	return eg.Wait()
}

// Sessions returns the server's session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}
