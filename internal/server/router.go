package server

import (
	"net/http"

	"github.com/meridian-obs/skysched/internal/metrics"
	"github.com/meridian-obs/skysched/internal/server/handlers"
)

type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	if r.server.cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware)
	}
	if r.server.cfg.Server.MaxBodySize > 0 {
		r.Use(MaxBodySizeMiddleware(r.server.cfg.Server.MaxBodySize))
	}
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	h := handlers.New(r.server.runner, r.server.runs, r.server.archiver)

	r.mux.HandleFunc("GET /health", h.HealthCheck)
	r.mux.HandleFunc("GET /", h.HealthCheck)

	r.mux.HandleFunc("POST /api/schedule", h.Schedule)
	r.mux.HandleFunc("POST /api/periods", h.PossiblePeriods)

	r.mux.HandleFunc("GET /api/runs", h.ListRuns)
	r.mux.HandleFunc("GET /api/runs/{id}", h.GetRun)
	r.mux.HandleFunc("DELETE /api/runs/{id}", h.DeleteRun)
	r.mux.HandleFunc("GET /api/runs/{id}/artifacts/{name}", h.GetRunArtifact)

	if r.server.cfg.Metrics.Enabled {
		r.mux.Handle("GET /metrics", metrics.Handler())
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	handler.ServeHTTP(w, req)
}
