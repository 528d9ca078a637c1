package boundary

import (
	"encoding/json"
	"sync"

	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/engine"
	"github.com/meridian-obs/skysched/internal/instrument"
	"github.com/meridian-obs/skysched/internal/prescheduler"
	"github.com/meridian-obs/skysched/internal/timeline"
)

// schedContext bundles one scheduling run's instrument and execution
// period. Immutable after creation.
type schedContext struct {
	instrument  *instrument.Instrument
	window      timeline.Period
	observatory string
	// rawInstrument preserves the caller's instrument section so context
	// export round-trips it untouched.
	rawInstrument json.RawMessage
}

// Session owns the handle arenas and the advisory last-error slot. The
// slot mirrors the message of the most recent failed operation on this
// session and is cleared at the start of every operation, so error state
// from different sessions never interleaves. Handles are read-only after
// creation; a mutex serializes arena bookkeeping so concurrent stage
// calls on one session are safe, except that destroying a handle must not
// overlap other calls using that same handle (the caller's obligation).
type Session struct {
	mu      sync.Mutex
	lastErr string

	contexts  arena[*schedContext]
	blockCols arena[*blocks.Collection]
	periods   arena[*prescheduler.Map]
	schedules arena[*engine.Schedule]

	decodeOpts   blocks.DecodeOptions
	preschedOpts prescheduler.Options
}

// SessionOption configures a session.
type SessionOption func(*Session)

// WithStrictBlocks makes unknown block discriminators a decode failure
// instead of the default lenient skip.
func WithStrictBlocks() SessionOption {
	return func(s *Session) {
		s.decodeOpts.Strict = true
	}
}

// WithPreschedulerOptions overrides visibility computation tuning.
func WithPreschedulerOptions(opts prescheduler.Options) SessionOption {
	return func(s *Session) {
		s.preschedOpts = opts
	}
}

// NewSession creates an empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastError returns the advisory message of the most recent failed
// operation, or "" if the last operation succeeded.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError resets the last-error slot.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// do wraps one exposed operation: clears the error slot, contains
// panics, and mirrors a failure message into the slot.
func (s *Session) do(fn func() *Error) error {
	s.ClearError()
	if err := guard(fn); err != nil {
		s.mu.Lock()
		s.lastErr = err.Message
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Session) storeContext(c *schedContext) ContextHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ContextHandle{h: s.contexts.insert(c)}
}

func (s *Session) storeBlocks(c *blocks.Collection) BlocksHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BlocksHandle{h: s.blockCols.insert(c)}
}

func (s *Session) storePeriods(m *prescheduler.Map) PeriodsHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PeriodsHandle{h: s.periods.insert(m)}
}

func (s *Session) storeSchedule(sched *engine.Schedule) ScheduleHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScheduleHandle{h: s.schedules.insert(sched)}
}

func (s *Session) context(h ContextHandle) (*schedContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contexts.get(h.h)
}

func (s *Session) collection(h BlocksHandle) (*blocks.Collection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockCols.get(h.h)
}

func (s *Session) possiblePeriods(h PeriodsHandle) (*prescheduler.Map, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.periods.get(h.h)
}

func (s *Session) schedule(h ScheduleHandle) (*engine.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedules.get(h.h)
}

// DestroyContext retires a context handle. Destroying the zero handle or
// an already-destroyed handle is a no-op.
func (s *Session) DestroyContext(h ContextHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts.remove(h.h)
}

// DestroyBlocks retires a block collection handle. Entities previously
// derived from the collection stay valid.
func (s *Session) DestroyBlocks(h BlocksHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockCols.remove(h.h)
}

// DestroyPossiblePeriods retires a possible-periods handle.
func (s *Session) DestroyPossiblePeriods(h PeriodsHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods.remove(h.h)
}

// DestroySchedule retires a schedule handle.
func (s *Session) DestroySchedule(h ScheduleHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules.remove(h.h)
}
