package engine

import (
	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/timeline"
)

// Unit is one placed block: a block reference plus its assigned,
// non-overlapping time period.
type Unit struct {
	Block  *blocks.Block
	Period timeline.Period
}

// Schedule is an algorithm result: the ordered placed units, the blocks
// that could not be placed, and the candidate's fitness. It owns its own
// block list, independent of the collection it was computed from.
type Schedule struct {
	Units       []Unit
	Unscheduled []*blocks.Block
	Fitness     float64
}

// Stats summarizes a schedule.
type Stats struct {
	ScheduledCount   int     `json:"scheduled_count"`
	UnscheduledCount int     `json:"unscheduled_count"`
	TotalBlocks      int     `json:"total_blocks"`
	SchedulingRate   float64 `json:"scheduling_rate"`
	Fitness          float64 `json:"fitness"`
}

// Stats computes the summary. scheduled + unscheduled always accounts for
// every block handed to the scheduler.
func (s *Schedule) Stats() Stats {
	scheduled := len(s.Units)
	unscheduled := len(s.Unscheduled)
	total := scheduled + unscheduled

	rate := 0.0
	if total > 0 {
		rate = float64(scheduled) / float64(total)
	}

	return Stats{
		ScheduledCount:   scheduled,
		UnscheduledCount: unscheduled,
		TotalBlocks:      total,
		SchedulingRate:   rate,
		Fitness:          s.Fitness,
	}
}

// fitnessOf scores a candidate: the priority-weighted fraction of blocks
// placed. Falls back to the plain scheduled fraction when all priorities
// are zero.
func fitnessOf(units []Unit, all []*blocks.Block) float64 {
	if len(all) == 0 {
		return 0
	}

	var totalWeight, placedWeight float64
	for _, b := range all {
		totalWeight += b.Priority
	}
	for _, u := range units {
		placedWeight += u.Block.Priority
	}

	if totalWeight <= 0 {
		return float64(len(units)) / float64(len(all))
	}
	return placedWeight / totalWeight
}
