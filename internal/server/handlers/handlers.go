// Package handlers implements the HTTP API: submitting scheduling runs,
// computing possible periods, and browsing run history.
package handlers

import (
	"net/http"

	"github.com/meridian-obs/skysched/internal/runner"
	"github.com/meridian-obs/skysched/internal/storage"
	"github.com/meridian-obs/skysched/internal/store"
)

type HandlerFunc func(w http.ResponseWriter, r *http.Request)

// Handlers bundles the API dependencies. Runs and Archiver may be nil
// when history or artifact storage is disabled.
type Handlers struct {
	runner   *runner.Runner
	runs     *store.Store
	archiver *storage.Archiver
}

func New(r *runner.Runner, runs *store.Store, archiver *storage.Archiver) *Handlers {
	return &Handlers{
		runner:   r,
		runs:     runs,
		archiver: archiver,
	}
}
