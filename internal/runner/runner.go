// Package runner executes scheduling runs end to end: the staged
// pipeline, the run-history record, optional artifact archiving, and
// metrics. The HTTP API, the CLI, and the directory watcher all funnel
// through it.
package runner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/boundary"
	"github.com/meridian-obs/skysched/internal/engine"
	"github.com/meridian-obs/skysched/internal/metrics"
	"github.com/meridian-obs/skysched/internal/storage"
	"github.com/meridian-obs/skysched/internal/store"
)

// Runner executes runs against one session. Store and archiver are
// optional; a nil store skips history, a nil archiver skips artifacts.
type Runner struct {
	session  *boundary.Session
	store    *store.Store
	archiver *storage.Archiver
	defaults engine.Params
}

// Options configure a runner.
type Options struct {
	Session  *boundary.Session
	Store    *store.Store
	Archiver *storage.Archiver
	Defaults engine.Params
}

// New builds a runner. A nil Session gets a fresh one.
func New(opts Options) *Runner {
	session := opts.Session
	if session == nil {
		session = boundary.NewSession()
	}
	return &Runner{
		session:  session,
		store:    opts.Store,
		archiver: opts.Archiver,
		defaults: opts.Defaults,
	}
}

// Session exposes the underlying session for staged use.
func (r *Runner) Session() *boundary.Session {
	return r.session
}

// DefaultParams returns the configured engine defaults.
func (r *Runner) DefaultParams() engine.Params {
	return r.defaults
}

// Result is a completed run: its ID, the serialized artifacts, and the
// parsed summary.
type Result struct {
	RunID    string
	Artifact *boundary.PipelineResult
	Stats    engine.Stats
}

// Run executes the full pipeline over one input document. The run is
// recorded in history (when a store is attached) whether it succeeds or
// fails; artifacts are archived only on success.
func (r *Runner) Run(ctx context.Context, source string, input []byte, params engine.Params) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now()

	artifact, err := r.session.RunPipeline(input, params)
	elapsed := time.Since(started)
	metrics.RecordRun(source, params.Algorithm.String(), runStatus(err), elapsed)

	record := &store.Run{
		ID:        runID,
		Source:    source,
		Algorithm: params.Algorithm.String(),
		Params:    marshalParams(params),
		Input:     input,
	}

	if err != nil {
		record.Status = store.StatusFailed
		record.Error = err.Error()
		r.record(ctx, record)
		return nil, err
	}

	result := &Result{RunID: runID, Artifact: artifact}
	if uerr := json.Unmarshal(artifact.Stats, &result.Stats); uerr != nil {
		log.Warn().Err(uerr).Str("run_id", runID).Msg("Failed to parse run stats")
	}
	metrics.RecordSchedule(params.Algorithm.String(),
		result.Stats.ScheduledCount, result.Stats.UnscheduledCount, result.Stats.Fitness)

	record.Status = store.StatusSucceeded
	record.Observatory = observatoryOf(input)
	record.ScheduledCount = result.Stats.ScheduledCount
	record.UnscheduledCount = result.Stats.UnscheduledCount
	record.TotalBlocks = result.Stats.TotalBlocks
	record.Fitness = result.Stats.Fitness
	record.Schedule = artifact.Schedule
	r.record(ctx, record)

	if r.archiver != nil {
		if aerr := r.archiver.ArchiveRun(ctx, runID, input, artifact); aerr != nil {
			log.Error().Err(aerr).Str("run_id", runID).Msg("Failed to archive run artifacts")
		}
	}

	log.Info().
		Str("run_id", runID).
		Str("source", source).
		Int("scheduled", result.Stats.ScheduledCount).
		Int("unscheduled", result.Stats.UnscheduledCount).
		Float64("fitness", result.Stats.Fitness).
		Dur("elapsed", elapsed).
		Msg("Run completed")

	return result, nil
}

func (r *Runner) record(ctx context.Context, record *store.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.Create(ctx, record); err != nil {
		log.Error().Err(err).Str("run_id", record.ID).Msg("Failed to record run history")
	}
}

func runStatus(err error) string {
	if err != nil {
		return store.StatusFailed
	}
	return store.StatusSucceeded
}

func marshalParams(params engine.Params) string {
	raw, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func observatoryOf(input []byte) string {
	var doc struct {
		Observatory string `json:"observatory"`
	}
	if err := json.Unmarshal(input, &doc); err != nil {
		return ""
	}
	return doc.Observatory
}
