// Package prescheduler computes, for every scheduling block, the candidate
// time windows inside an execution period during which the block can be
// observed: the target must sit inside the instrument's elevation limits
// and the sky must be astronomically dark. Blocks without sky coordinates
// (engineering work) are observable for the whole period; sequences are
// observable where all of their children are.
package prescheduler

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/instrument"
	"github.com/meridian-obs/skysched/internal/timeline"
)

// astronomicalTwilight is the solar altitude below which the sky counts
// as dark.
const astronomicalTwilight = -18.0

// defaultSampleStep is the resolution at which constraints are evaluated.
const defaultSampleStep = time.Minute

// Entry holds the candidate windows for one block, ordered and disjoint.
// An empty Periods list means the block is not observable in the window.
type Entry struct {
	BlockID   string
	BlockName string
	Periods   []timeline.Period
}

// Map is the derived possible-periods artifact of (instrument, blocks,
// execution period). It owns independent copies of the block ids and
// names, so it stays valid after the source collection is destroyed.
type Map struct {
	Entries []Entry
	byID    map[string]int
}

// Get returns the periods for a block id.
func (m *Map) Get(blockID string) ([]timeline.Period, bool) {
	idx, ok := m.byID[blockID]
	if !ok {
		return nil, false
	}
	return m.Entries[idx].Periods, true
}

// Options tune the computation.
type Options struct {
	// SampleStep overrides the constraint sampling resolution.
	SampleStep time.Duration
}

// Compute evaluates visibility for every top-level block in the
// collection over the execution period.
func Compute(inst *instrument.Instrument, col *blocks.Collection, window timeline.Period, opts Options) (*Map, error) {
	if inst == nil {
		return nil, errors.New("prescheduler requires an instrument")
	}
	if col == nil {
		return nil, errors.New("prescheduler requires a block collection")
	}

	step := opts.SampleStep
	if step <= 0 {
		step = defaultSampleStep
	}

	m := &Map{
		Entries: make([]Entry, 0, col.Len()),
		byID:    make(map[string]int, col.Len()),
	}

	for _, block := range col.Blocks {
		periods := blockPeriods(inst, block, window, step)
		// Identifiers are not required to be unique; lookups by ID
		// resolve to the first occurrence.
		if _, dup := m.byID[block.ID]; !dup {
			m.byID[block.ID] = len(m.Entries)
		}
		m.Entries = append(m.Entries, Entry{
			BlockID:   block.ID,
			BlockName: block.Name,
			Periods:   periods,
		})
		log.Debug().
			Str("block", block.Name).
			Int("windows", len(periods)).
			Msg("Computed possible periods")
	}

	return m, nil
}

func blockPeriods(inst *instrument.Instrument, block *blocks.Block, window timeline.Period, step time.Duration) []timeline.Period {
	switch block.Kind {
	case blocks.KindSequence:
		return sequencePeriods(inst, block, window, step)
	case blocks.KindObservation:
		if block.Target != nil {
			return targetPeriods(inst, block.Target, window, step)
		}
	}
	// Engineering tasks and untargeted observations are unconstrained.
	if window.Duration() <= 0 {
		return nil
	}
	return []timeline.Period{window}
}

// sequencePeriods intersects the children's windows: the whole sequence
// must be observable at once.
func sequencePeriods(inst *instrument.Instrument, seq *blocks.Block, window timeline.Period, step time.Duration) []timeline.Period {
	if len(seq.Children) == 0 {
		if window.Duration() <= 0 {
			return nil
		}
		return []timeline.Period{window}
	}

	periods := blockPeriods(inst, seq.Children[0], window, step)
	for _, child := range seq.Children[1:] {
		periods = timeline.Intersect(periods, blockPeriods(inst, child, window, step))
		if len(periods) == 0 {
			break
		}
	}
	return periods
}

// targetPeriods samples the constraint conjunction over the window and
// stitches the passing samples into disjoint periods.
func targetPeriods(inst *instrument.Instrument, target *blocks.Coordinates, window timeline.Period, step time.Duration) []timeline.Period {
	var raw []timeline.Period
	var openBegin time.Time
	open := false

	for t := window.Begin; t.Before(window.End); t = t.Add(step) {
		if observable(inst, target, t) {
			if !open {
				openBegin = t
				open = true
			}
			continue
		}
		if open {
			raw = append(raw, timeline.Period{Begin: openBegin, End: t})
			open = false
		}
	}
	if open {
		raw = append(raw, timeline.Period{Begin: openBegin, End: window.End})
	}

	return timeline.Merge(raw)
}

func observable(inst *instrument.Instrument, target *blocks.Coordinates, t time.Time) bool {
	loc := inst.Location
	alt := altitudeDeg(t, target.RA, target.Dec, loc.Latitude, loc.Longitude)
	if alt < inst.Capabilities.MinElevation || alt > inst.Capabilities.MaxElevation {
		return false
	}
	return sunAltitudeDeg(t, loc.Latitude, loc.Longitude) < astronomicalTwilight
}
