package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/meridian-obs/skysched/internal/storage"
	"github.com/meridian-obs/skysched/internal/store"
)

type runListResponse struct {
	Runs  []*store.Run `json:"runs"`
	Limit int          `json:"limit"`
	Page  int          `json:"page"`
}

// ListRuns returns run history summaries, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		NotFound(w, "run history is disabled")
		return
	}

	limit := intQuery(r, "limit", 50)
	page := intQuery(r, "page", 0)

	runs, err := h.runs.List(r.Context(), limit, page*limit)
	if err != nil {
		InternalError(w, err.Error())
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}

	JSON(w, http.StatusOK, runListResponse{Runs: runs, Limit: limit, Page: page})
}

type runDetailResponse struct {
	*store.Run
	Input    json.RawMessage `json:"input,omitempty"`
	Schedule json.RawMessage `json:"schedule,omitempty"`
}

// GetRun returns one run including its input and schedule documents.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		NotFound(w, "run history is disabled")
		return
	}

	id := r.PathValue("id")
	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(w, "run not found: "+id)
			return
		}
		InternalError(w, err.Error())
		return
	}

	JSON(w, http.StatusOK, runDetailResponse{
		Run:      run,
		Input:    run.Input,
		Schedule: run.Schedule,
	})
}

// DeleteRun removes a run from history.
func (h *Handlers) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		NotFound(w, "run history is disabled")
		return
	}

	id := r.PathValue("id")
	if err := h.runs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(w, "run not found: "+id)
			return
		}
		InternalError(w, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetRunArtifact serves one archived artifact of a run.
func (h *Handlers) GetRunArtifact(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		NotFound(w, "artifact storage is disabled")
		return
	}

	id := r.PathValue("id")
	name := r.PathValue("name")

	data, err := h.archiver.Artifact(r.Context(), id, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			NotFound(w, "artifact not found")
			return
		}
		InternalError(w, err.Error())
		return
	}

	RawJSON(w, http.StatusOK, data)
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
