// Package server serves the upload and mapping page and its JSON state API.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"standardizer/internal/config"
	"standardizer/pkg/engine"
	"standardizer/pkg/parser"
	"standardizer/pkg/report"
)

// CookieName is the session cookie.
const CookieName = "standardizer_session"

//go:embed templates/index.html
var templateFS embed.FS

// Server owns the session store and the HTTP handlers.
type Server struct {
	cfg      *config.Config
	registry *parser.Registry
	store    *engine.Store
	logger   *zap.Logger
	page     *template.Template
	mux      *http.ServeMux
}

// New builds a server from validated configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	registry := parser.DefaultRegistry()
	s := &Server{
		cfg:      cfg,
		registry: registry,
		store: engine.NewStore(cfg.GetSessionTTL(), engine.Options{
			Registry:    registry,
			AutoSuggest: cfg.Mapping.AutoSuggest,
		}, logger.Named("sessions")),
		logger: logger,
		page:   page,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /skip-rows", s.handleSkipRows)
	s.mux.HandleFunc("POST /mapping", s.handleMapping)
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("POST /api/mapping", s.handleMappingJSON)
	s.mux.HandleFunc("GET /api/schema", s.handleSchema)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Store returns the session store.
func (s *Server) Store() *engine.Store {
	return s.store
}

// ListenAndServe listens on the configured address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server and the session sweeper on ln until ctx is
// cancelled, then shuts the server down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.GetReadTimeout(),
		WriteTimeout: s.cfg.GetWriteTimeout(),
		ErrorLog:     zap.NewStdLog(s.logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.store.Run(gctx, s.cfg.GetSweepInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) pageOptions() report.PageOptions {
	return report.PageOptions{
		RowLimit:    s.cfg.Preview.RowLimit,
		Materialize: s.cfg.Preview.Materialize,
		Extensions:  s.registry.Extensions(),
	}
}

func (s *Server) pageFor(sess *engine.Session) *report.Page {
	return report.BuildPage(sess.Snapshot(), s.pageOptions())
}
