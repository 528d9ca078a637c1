// Package server exposes the scheduling engine over HTTP: run
// submission, possible-period computation, and run history.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/config"
	"github.com/meridian-obs/skysched/internal/runner"
	"github.com/meridian-obs/skysched/internal/storage"
	"github.com/meridian-obs/skysched/internal/store"
)

type Server struct {
	cfg        *config.Config
	runner     *runner.Runner
	runs       *store.Store
	archiver   *storage.Archiver
	httpServer *http.Server
	router     *Router
}

// Options carry the server's collaborators. Runs and Archiver are
// optional.
type Options struct {
	Runner   *runner.Runner
	Runs     *store.Store
	Archiver *storage.Archiver
}

func New(cfg *config.Config, opts Options) *Server {
	srv := &Server{
		cfg:      cfg,
		runner:   opts.Runner,
		runs:     opts.Runs,
		archiver: opts.Archiver,
	}

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv
}

func (s *Server) Start(ctx context.Context) error {
	log.Info().
		Str("addr", s.cfg.Server.Address()).
		Msg("Starting server")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
