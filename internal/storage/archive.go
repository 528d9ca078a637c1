package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/boundary"
)

// Archiver writes the artifacts of completed runs to a backend under
// runs/<run-id>/.
type Archiver struct {
	backend Backend
}

// NewArchiver wraps a backend.
func NewArchiver(backend Backend) *Archiver {
	return &Archiver{backend: backend}
}

// artifact file names under the run prefix.
const (
	ArtifactInput           = "input.json"
	ArtifactContext         = "context.json"
	ArtifactBlocks          = "blocks.json"
	ArtifactPossiblePeriods = "possible_periods.json"
	ArtifactSchedule        = "schedule.json"
	ArtifactStats           = "stats.json"
)

// ArchiveRun stores a pipeline result plus the original input document.
func (a *Archiver) ArchiveRun(ctx context.Context, runID string, input []byte, result *boundary.PipelineResult) error {
	artifacts := map[string][]byte{
		ArtifactInput:           input,
		ArtifactContext:         result.Context,
		ArtifactBlocks:          result.Blocks,
		ArtifactPossiblePeriods: result.PossiblePeriods,
		ArtifactSchedule:        result.Schedule,
		ArtifactStats:           result.Stats,
	}

	for name, data := range artifacts {
		if len(data) == 0 {
			continue
		}
		key := path.Join("runs", runID, name)
		if err := a.backend.Put(ctx, key, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
	}

	log.Debug().Str("run_id", runID).Msg("Run artifacts archived")
	return nil
}

// Artifact reads one stored artifact of a run.
func (a *Archiver) Artifact(ctx context.Context, runID, name string) ([]byte, error) {
	rc, err := a.backend.Get(ctx, path.Join("runs", runID, name))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
