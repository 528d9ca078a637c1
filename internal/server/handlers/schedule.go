package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/meridian-obs/skysched/internal/engine"
)

// scheduleResponse wraps a completed run's artifacts with its history ID.
type scheduleResponse struct {
	RunID           string          `json:"run_id"`
	Context         json.RawMessage `json:"context"`
	Blocks          json.RawMessage `json:"blocks"`
	PossiblePeriods json.RawMessage `json:"possible_periods"`
	Schedule        json.RawMessage `json:"schedule"`
	Stats           json.RawMessage `json:"stats"`
}

// Schedule runs the full pipeline over the posted input document. An
// optional top-level "params" object overrides the configured engine
// defaults.
func (h *Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		BadRequest(w, "reading request body: "+err.Error())
		return
	}
	if len(body) == 0 {
		BadRequest(w, "empty request body")
		return
	}

	params, perr := h.requestParams(body)
	if perr != nil {
		BadRequest(w, perr.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), "api", body, params)
	if err != nil {
		BoundaryError(w, err)
		return
	}

	JSON(w, http.StatusOK, scheduleResponse{
		RunID:           result.RunID,
		Context:         result.Artifact.Context,
		Blocks:          result.Artifact.Blocks,
		PossiblePeriods: result.Artifact.PossiblePeriods,
		Schedule:        result.Artifact.Schedule,
		Stats:           result.Artifact.Stats,
	})
}

// PossiblePeriods computes visibility windows without scheduling. The
// body carries the same document as Schedule minus any params.
func (h *Handlers) PossiblePeriods(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		BadRequest(w, "reading request body: "+err.Error())
		return
	}
	if len(body) == 0 {
		BadRequest(w, "empty request body")
		return
	}

	var doc struct {
		Instrument      json.RawMessage `json:"instrument"`
		ExecutionPeriod json.RawMessage `json:"executionPeriod"`
		Blocks          json.RawMessage `json:"schedulingBlocks"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	cfg, err := json.Marshal(struct {
		Instrument      json.RawMessage `json:"instrument,omitempty"`
		ExecutionPeriod json.RawMessage `json:"executionPeriod,omitempty"`
	}{doc.Instrument, doc.ExecutionPeriod})
	if err != nil {
		InternalError(w, err.Error())
		return
	}

	session := h.runner.Session()

	ctx, cerr := session.CreateContext(cfg)
	if cerr != nil {
		BoundaryError(w, cerr)
		return
	}
	defer session.DestroyContext(ctx)

	blocksH, berr := session.LoadBlocks(doc.Blocks)
	if berr != nil {
		BoundaryError(w, berr)
		return
	}
	defer session.DestroyBlocks(blocksH)

	periodsH, perr := session.ComputePossiblePeriods(ctx, blocksH)
	if perr != nil {
		BoundaryError(w, perr)
		return
	}
	defer session.DestroyPossiblePeriods(periodsH)

	out, eerr := session.ExportPossiblePeriods(periodsH)
	if eerr != nil {
		BoundaryError(w, eerr)
		return
	}

	RawJSON(w, http.StatusOK, out)
}

// requestParams merges an optional "params" override into the runner's
// configured defaults.
func (h *Handlers) requestParams(body []byte) (engine.Params, error) {
	params := h.runner.DefaultParams()

	var doc struct {
		Params *engine.Params `json:"params"`
	}
	// Malformed JSON is left for the pipeline to classify.
	if err := json.Unmarshal(body, &doc); err == nil && doc.Params != nil {
		params = *doc.Params
	}

	if err := params.Validate(); err != nil {
		return engine.Params{}, err
	}
	return params, nil
}
