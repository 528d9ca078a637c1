package boundary

import (
	"encoding/json"
	"errors"

	"github.com/meridian-obs/skysched/internal/engine"
)

// PipelineInput is the combined configuration for a one-shot run: the
// context configuration plus the block collection in one document.
type PipelineInput struct {
	Instrument      json.RawMessage `json:"instrument"`
	ExecutionPeriod json.RawMessage `json:"executionPeriod"`
	Observatory     string          `json:"observatory,omitempty"`
	Blocks          json.RawMessage `json:"schedulingBlocks"`
}

// PipelineResult carries every artifact of a completed run, already
// serialized. All fields are set on success; a failed run produces none.
type PipelineResult struct {
	Context         json.RawMessage `json:"context"`
	Blocks          json.RawMessage `json:"blocks"`
	PossiblePeriods json.RawMessage `json:"possible_periods"`
	Schedule        json.RawMessage `json:"schedule"`
	Stats           json.RawMessage `json:"stats"`
}

// RunPipeline executes the full staged sequence (create context, load
// blocks, compute possible periods, run the scheduler, export) against
// a single input document. Every intermediate handle is destroyed before
// returning, whether the run succeeds or fails, so a pipeline never
// leaks entities into the session.
func (s *Session) RunPipeline(input []byte, params engine.Params) (*PipelineResult, error) {
	if len(input) == 0 {
		return nil, s.fail(errorf(CodeNullPointer, "pipeline input is empty"))
	}

	var doc PipelineInput
	if err := json.Unmarshal(input, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, s.fail(errorf(CodeInvalidJSON, "JSON parse error: %v", err))
		}
		return nil, s.fail(errorf(CodeDeserialization, "pipeline input has unexpected shape: %v", err))
	}
	if len(doc.Blocks) == 0 {
		return nil, s.fail(errorf(CodeDeserialization, "pipeline input is missing 'schedulingBlocks'"))
	}

	cfg, err := json.Marshal(struct {
		Instrument      json.RawMessage `json:"instrument,omitempty"`
		ExecutionPeriod json.RawMessage `json:"executionPeriod,omitempty"`
		Observatory     string          `json:"observatory,omitempty"`
	}{doc.Instrument, doc.ExecutionPeriod, doc.Observatory})
	if err != nil {
		return nil, s.fail(errorf(CodeSerialization, "assembling context config: %v", err))
	}

	ctx, cerr := s.CreateContext(cfg)
	if cerr != nil {
		return nil, cerr
	}
	defer s.DestroyContext(ctx)

	blocksH, berr := s.LoadBlocks(doc.Blocks)
	if berr != nil {
		return nil, berr
	}
	defer s.DestroyBlocks(blocksH)

	periodsH, perr := s.ComputePossiblePeriods(ctx, blocksH)
	if perr != nil {
		return nil, perr
	}
	defer s.DestroyPossiblePeriods(periodsH)

	schedH, serr := s.RunScheduler(ctx, blocksH, periodsH, params)
	if serr != nil {
		return nil, serr
	}
	defer s.DestroySchedule(schedH)

	return s.exportPipeline(ctx, blocksH, periodsH, schedH)
}

// RunPipelineFromFile behaves like RunPipeline after reading the file; a
// read failure reports IO.
func (s *Session) RunPipelineFromFile(path string, params engine.Params) (*PipelineResult, error) {
	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	return s.RunPipeline(data, params)
}

func (s *Session) exportPipeline(ctx ContextHandle, blocksH BlocksHandle, periodsH PeriodsHandle, schedH ScheduleHandle) (*PipelineResult, error) {
	ctxJSON, err := s.ExportContext(ctx)
	if err != nil {
		return nil, err
	}
	blocksJSON, err := s.ExportBlocks(blocksH)
	if err != nil {
		return nil, err
	}
	periodsJSON, err := s.ExportPossiblePeriods(periodsH)
	if err != nil {
		return nil, err
	}
	schedJSON, err := s.ExportSchedule(schedH)
	if err != nil {
		return nil, err
	}
	statsJSON, err := s.ScheduleStats(schedH)
	if err != nil {
		return nil, err
	}

	return &PipelineResult{
		Context:         ctxJSON,
		Blocks:          blocksJSON,
		PossiblePeriods: periodsJSON,
		Schedule:        schedJSON,
		Stats:           statsJSON,
	}, nil
}

// fail records the error in the last-error slot before returning it,
// matching the behavior of the staged operations.
func (s *Session) fail(err *Error) error {
	s.mu.Lock()
	s.lastErr = err.Message
	s.mu.Unlock()
	return err
}
