package boundary

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/engine"
	"github.com/meridian-obs/skysched/internal/instrument"
	"github.com/meridian-obs/skysched/internal/prescheduler"
	"github.com/meridian-obs/skysched/internal/timeline"
)

// contextConfig is the wire shape of a context configuration.
type contextConfig struct {
	Instrument      json.RawMessage `json:"instrument"`
	ExecutionPeriod *struct {
		Begin string `json:"begin"`
		End   string `json:"end"`
	} `json:"executionPeriod"`
	Observatory string `json:"observatory"`
}

// CreateContext parses an instrument + execution period configuration
// and returns a handle to the immutable context. Syntax errors report
// InvalidJSON; a missing or undecodable instrument or executionPeriod
// section reports Deserialization. The handle is produced only on
// success.
func (s *Session) CreateContext(configJSON []byte) (ContextHandle, error) {
	var out ContextHandle
	err := s.do(func() *Error {
		if len(configJSON) == 0 {
			return errorf(CodeNullPointer, "config JSON is empty")
		}

		ctx, berr := decodeContext(configJSON)
		if berr != nil {
			return berr
		}
		out = s.storeContext(ctx)

		log.Debug().
			Str("observatory", ctx.observatory).
			Str("begin", timeline.FormatTime(ctx.window.Begin)).
			Str("end", timeline.FormatTime(ctx.window.End)).
			Msg("Context created")
		return nil
	})
	if err != nil {
		return ContextHandle{}, err
	}
	return out, nil
}

// CreateContextFromFile behaves like CreateContext after reading the
// file; a read failure reports IO.
func (s *Session) CreateContextFromFile(path string) (ContextHandle, error) {
	data, err := s.readFile(path)
	if err != nil {
		return ContextHandle{}, err
	}
	return s.CreateContext(data)
}

func decodeContext(configJSON []byte) (*schedContext, *Error) {
	var cfg contextConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, errorf(CodeInvalidJSON, "JSON parse error: %v", err)
		}
		return nil, errorf(CodeDeserialization, "config has unexpected shape: %v", err)
	}

	if cfg.ExecutionPeriod == nil {
		return nil, errorf(CodeDeserialization, "config is missing 'executionPeriod'")
	}
	window, err := timeline.ParsePeriod(cfg.ExecutionPeriod.Begin, cfg.ExecutionPeriod.End)
	if err != nil {
		return nil, errorf(CodeDeserialization, "invalid execution period: %v", err)
	}

	if len(cfg.Instrument) == 0 {
		return nil, errorf(CodeDeserialization, "config is missing 'instrument'")
	}
	inst, err := instrument.Decode(cfg.Instrument)
	if err != nil {
		return nil, errorf(CodeDeserialization, "invalid instrument: %v", err)
	}

	return &schedContext{
		instrument:    inst,
		window:        window,
		observatory:   cfg.Observatory,
		rawInstrument: append(json.RawMessage(nil), cfg.Instrument...),
	}, nil
}

// LoadBlocks decodes a block collection from either a bare array or an
// object with a "schedulingBlocks" field. Neither shape matching reports
// InvalidJSON; an undecodable element reports Deserialization.
func (s *Session) LoadBlocks(blocksJSON []byte) (BlocksHandle, error) {
	var out BlocksHandle
	err := s.do(func() *Error {
		if len(blocksJSON) == 0 {
			return errorf(CodeNullPointer, "blocks JSON is empty")
		}

		col, err := blocks.Decode(blocksJSON, s.decodeOpts)
		if err != nil {
			return classifyCodecError(err)
		}
		out = s.storeBlocks(col)

		log.Debug().Int("count", col.Len()).Msg("Blocks loaded")
		return nil
	})
	if err != nil {
		return BlocksHandle{}, err
	}
	return out, nil
}

// LoadBlocksFromFile behaves like LoadBlocks after reading the file; a
// read failure reports IO.
func (s *Session) LoadBlocksFromFile(path string) (BlocksHandle, error) {
	data, err := s.readFile(path)
	if err != nil {
		return BlocksHandle{}, err
	}
	return s.LoadBlocks(data)
}

func classifyCodecError(err error) *Error {
	switch {
	case errors.Is(err, blocks.ErrSyntax), errors.Is(err, blocks.ErrShape):
		return errorf(CodeInvalidJSON, "%v", err)
	case errors.Is(err, blocks.ErrBlockDecode):
		return errorf(CodeDeserialization, "%v", err)
	}
	return errorf(CodeUnknown, "%v", err)
}

// BlocksCount returns the number of top-level blocks in a collection.
func (s *Session) BlocksCount(h BlocksHandle) (int, error) {
	var count int
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null blocks handle")
		}
		col, ok := s.collection(h)
		if !ok {
			return errorf(CodeInvalidHandle, "blocks handle is not live")
		}
		count = col.Len()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// BlockAt exports the block at the given index as JSON.
func (s *Session) BlockAt(h BlocksHandle, index int) ([]byte, error) {
	var out []byte
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null blocks handle")
		}
		col, ok := s.collection(h)
		if !ok {
			return errorf(CodeInvalidHandle, "blocks handle is not live")
		}
		block := col.At(index)
		if block == nil {
			return errorf(CodeInvalidHandle, "index %d out of bounds (len %d)", index, col.Len())
		}
		raw, err := blocks.EncodeBlock(block)
		if err != nil {
			return errorf(CodeSerialization, "encoding block: %v", err)
		}
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ComputePossiblePeriods runs the visibility computation for every block
// against the context's instrument and execution period. The result is
// an independent map: destroying the source collection afterwards does
// not invalidate it.
func (s *Session) ComputePossiblePeriods(ctx ContextHandle, blocksH BlocksHandle) (PeriodsHandle, error) {
	var out PeriodsHandle
	err := s.do(func() *Error {
		if ctx.IsZero() || blocksH.IsZero() {
			return errorf(CodeNullPointer, "null handle argument")
		}
		c, ok := s.context(ctx)
		if !ok {
			return errorf(CodeInvalidHandle, "context handle is not live")
		}
		col, ok := s.collection(blocksH)
		if !ok {
			return errorf(CodeInvalidHandle, "blocks handle is not live")
		}
		if c.instrument == nil {
			return errorf(CodeInvalidHandle, "context has no instrument configured")
		}

		m, err := prescheduler.Compute(c.instrument, col, c.window, s.preschedOpts)
		if err != nil {
			return errorf(CodePreschedulerFailed, "prescheduler failed: %v", err)
		}
		out = s.storePeriods(m)

		log.Debug().Int("blocks", len(m.Entries)).Msg("Possible periods computed")
		return nil
	})
	if err != nil {
		return PeriodsHandle{}, err
	}
	return out, nil
}

// RunScheduler executes the selected algorithm. Passing the zero
// PeriodsHandle makes the scheduler compute possible periods internally
// for this run (they are not retained). The schedule owns its own block
// references and survives the collection being destroyed.
func (s *Session) RunScheduler(ctx ContextHandle, blocksH BlocksHandle, periodsH PeriodsHandle, params engine.Params) (ScheduleHandle, error) {
	var out ScheduleHandle
	err := s.do(func() *Error {
		if ctx.IsZero() || blocksH.IsZero() {
			return errorf(CodeNullPointer, "null handle argument")
		}
		c, ok := s.context(ctx)
		if !ok {
			return errorf(CodeInvalidHandle, "context handle is not live")
		}
		col, ok := s.collection(blocksH)
		if !ok {
			return errorf(CodeInvalidHandle, "blocks handle is not live")
		}
		if c.instrument == nil {
			return errorf(CodeInvalidHandle, "context has no instrument configured")
		}

		var periods *prescheduler.Map
		if !periodsH.IsZero() {
			m, ok := s.possiblePeriods(periodsH)
			if !ok {
				return errorf(CodeInvalidHandle, "possible periods handle is not live")
			}
			periods = m
		} else {
			m, err := prescheduler.Compute(c.instrument, col, c.window, s.preschedOpts)
			if err != nil {
				return errorf(CodePreschedulerFailed, "prescheduler failed: %v", err)
			}
			periods = m
		}

		sched, err := engine.Run(col, periods, params)
		if err != nil {
			return errorf(CodeSchedulingFailed, "scheduling failed: %v", err)
		}
		out = s.storeSchedule(sched)

		stats := sched.Stats()
		log.Info().
			Str("algorithm", params.Algorithm.String()).
			Int("scheduled", stats.ScheduledCount).
			Int("unscheduled", stats.UnscheduledCount).
			Float64("fitness", stats.Fitness).
			Msg("Scheduler finished")
		return nil
	})
	if err != nil {
		return ScheduleHandle{}, err
	}
	return out, nil
}

func (s *Session) readFile(path string) ([]byte, error) {
	var data []byte
	err := s.do(func() *Error {
		if path == "" {
			return errorf(CodeNullPointer, "file path is empty")
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return errorf(CodeIO, "reading %s: %v", path, err)
		}
		data = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
