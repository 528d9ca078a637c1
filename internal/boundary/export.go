package boundary

import (
	"encoding/json"

	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/engine"
	"github.com/meridian-obs/skysched/internal/prescheduler"
	"github.com/meridian-obs/skysched/internal/timeline"
)

// Wire DTOs. Field names are part of the stable external schema.

type periodDTO struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

type executionPeriodDTO struct {
	Begin        string  `json:"begin"`
	End          string  `json:"end"`
	DurationDays float64 `json:"duration_days"`
}

type blockPeriodsDTO struct {
	BlockID   string      `json:"block_id"`
	BlockName string      `json:"block_name"`
	Periods   []periodDTO `json:"periods"`
}

type scheduledUnitDTO struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	Begin    string `json:"begin"`
	End      string `json:"end"`
}

type unscheduledBlockDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type scheduleDTO struct {
	Units            []scheduledUnitDTO    `json:"units"`
	Fitness          float64               `json:"fitness"`
	ScheduledCount   int                   `json:"scheduled_count"`
	Unscheduled      []unscheduledBlockDTO `json:"unscheduled"`
	UnscheduledCount int                   `json:"unscheduled_count"`
}

type contextDTO struct {
	Instrument      json.RawMessage    `json:"instrument"`
	ExecutionPeriod executionPeriodDTO `json:"executionPeriod"`
	Observatory     string             `json:"observatory,omitempty"`
}

func toPeriodDTOs(periods []timeline.Period) []periodDTO {
	out := make([]periodDTO, 0, len(periods))
	for _, p := range periods {
		out = append(out, periodDTO{
			Begin: timeline.FormatTime(p.Begin),
			End:   timeline.FormatTime(p.End),
		})
	}
	return out
}

// ExportExecutionPeriod serializes a context's execution period as
// {"begin", "end", "duration_days"}.
func (s *Session) ExportExecutionPeriod(h ContextHandle) ([]byte, error) {
	var out []byte
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null context handle")
		}
		c, ok := s.context(h)
		if !ok {
			return errorf(CodeInvalidHandle, "context handle is not live")
		}
		return s.marshal(executionPeriodDTO{
			Begin:        timeline.FormatTime(c.window.Begin),
			End:          timeline.FormatTime(c.window.End),
			DurationDays: c.window.DurationDays(),
		}, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExportContext serializes the whole context configuration, preserving
// the caller's instrument section verbatim.
func (s *Session) ExportContext(h ContextHandle) ([]byte, error) {
	var out []byte
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null context handle")
		}
		c, ok := s.context(h)
		if !ok {
			return errorf(CodeInvalidHandle, "context handle is not live")
		}
		return s.marshal(contextDTO{
			Instrument: c.rawInstrument,
			ExecutionPeriod: executionPeriodDTO{
				Begin:        timeline.FormatTime(c.window.Begin),
				End:          timeline.FormatTime(c.window.End),
				DurationDays: c.window.DurationDays(),
			},
			Observatory: c.observatory,
		}, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExportBlocks serializes a block collection in its canonical wrapper
// form, suitable for loading again with LoadBlocks.
func (s *Session) ExportBlocks(h BlocksHandle) ([]byte, error) {
	var out []byte
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null blocks handle")
		}
		col, ok := s.collection(h)
		if !ok {
			return errorf(CodeInvalidHandle, "blocks handle is not live")
		}
		raw, err := blocks.Encode(col)
		if err != nil {
			return errorf(CodeSerialization, "encoding blocks: %v", err)
		}
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExportPossiblePeriods serializes a possible-periods map as an array of
// {"block_id", "block_name", "periods"} entries.
func (s *Session) ExportPossiblePeriods(h PeriodsHandle) ([]byte, error) {
	var out []byte
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null possible periods handle")
		}
		m, ok := s.possiblePeriods(h)
		if !ok {
			return errorf(CodeInvalidHandle, "possible periods handle is not live")
		}
		return s.marshal(toBlockPeriodsDTOs(m), &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toBlockPeriodsDTOs(m *prescheduler.Map) []blockPeriodsDTO {
	entries := make([]blockPeriodsDTO, 0, len(m.Entries))
	for _, e := range m.Entries {
		entries = append(entries, blockPeriodsDTO{
			BlockID:   e.BlockID,
			BlockName: e.BlockName,
			Periods:   toPeriodDTOs(e.Periods),
		})
	}
	return entries
}

// ExportSchedule serializes a schedule: placed units in time order, the
// unscheduled remainder, and the fitness score.
func (s *Session) ExportSchedule(h ScheduleHandle) ([]byte, error) {
	var out []byte
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null schedule handle")
		}
		sched, ok := s.schedule(h)
		if !ok {
			return errorf(CodeInvalidHandle, "schedule handle is not live")
		}
		return s.marshal(toScheduleDTO(sched), &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toScheduleDTO(sched *engine.Schedule) scheduleDTO {
	units := make([]scheduledUnitDTO, 0, len(sched.Units))
	for _, u := range sched.Units {
		units = append(units, scheduledUnitDTO{
			TaskID:   u.Block.ID,
			TaskName: u.Block.Name,
			Begin:    timeline.FormatTime(u.Period.Begin),
			End:      timeline.FormatTime(u.Period.End),
		})
	}

	unscheduled := make([]unscheduledBlockDTO, 0, len(sched.Unscheduled))
	for _, b := range sched.Unscheduled {
		unscheduled = append(unscheduled, unscheduledBlockDTO{ID: b.ID, Name: b.Name})
	}

	return scheduleDTO{
		Units:            units,
		Fitness:          sched.Fitness,
		ScheduledCount:   len(units),
		Unscheduled:      unscheduled,
		UnscheduledCount: len(unscheduled),
	}
}

// ScheduleStats serializes the schedule summary: counts, scheduling
// rate, and fitness.
func (s *Session) ScheduleStats(h ScheduleHandle) ([]byte, error) {
	var out []byte
	err := s.do(func() *Error {
		if h.IsZero() {
			return errorf(CodeNullPointer, "null schedule handle")
		}
		sched, ok := s.schedule(h)
		if !ok {
			return errorf(CodeInvalidHandle, "schedule handle is not live")
		}
		return s.marshal(sched.Stats(), &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) marshal(v any, out *[]byte) *Error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errorf(CodeSerialization, "serializing: %v", err)
	}
	*out = raw
	return nil
}
