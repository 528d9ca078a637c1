package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/prescheduler"
	"github.com/meridian-obs/skysched/internal/timeline"
)

// Run executes the selected algorithm over the collection. The possible
// periods map must cover the same collection; blocks absent from the map
// are treated as unobservable and end up unscheduled.
func Run(col *blocks.Collection, periods *prescheduler.Map, params Params) (*Schedule, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduling parameters: %w", err)
	}
	if col == nil || periods == nil {
		return nil, fmt.Errorf("scheduler requires a block collection and possible periods")
	}

	switch params.Algorithm {
	case AlgorithmAccumulative:
		return runAccumulative(col.Clone(), periods, params, params.Seed), nil
	case AlgorithmHybridAccumulative:
		return runHybrid(col.Clone(), periods, params)
	}
	return nil, fmt.Errorf("unknown algorithm %d", int(params.Algorithm))
}

// runAccumulative searches max_iterations candidate orderings and keeps
// the best-scoring schedule. The first candidate uses the pure
// figure-of-merit ordering (task priority, the engine's default merit
// function); later candidates perturb it randomly.
func runAccumulative(all []*blocks.Block, periods *prescheduler.Map, params Params, seed int64) *Schedule {
	rng := newRNG(seed)

	var deadline time.Time
	if params.TimeLimitSeconds > 0 {
		deadline = time.Now().Add(time.Duration(params.TimeLimitSeconds * float64(time.Second)))
	}

	var best *Schedule
	iterations := params.maxIterations()
	for iter := 0; iter < iterations; iter++ {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			log.Debug().Int("iteration", iter).Msg("Scheduler time limit reached")
			break
		}

		order := candidateOrder(all, rng, iter > 0)
		candidate := buildCandidate(order, all, periods)
		if best == nil || candidate.Fitness > best.Fitness {
			best = candidate
		}
		// A candidate that placed everything cannot be beaten.
		if len(best.Unscheduled) == 0 {
			break
		}
	}

	if best == nil {
		best = &Schedule{Unscheduled: all}
	}
	return best
}

// candidateOrder returns the blocks in descending figure-of-merit order.
// When perturb is set, each block's merit is jittered so successive
// iterations explore nearby orderings.
func candidateOrder(all []*blocks.Block, rng *rand.Rand, perturb bool) []*blocks.Block {
	type ranked struct {
		block *blocks.Block
		merit float64
	}

	order := make([]ranked, len(all))
	for i, b := range all {
		merit := b.Priority
		if perturb {
			merit += rng.NormFloat64() * (0.25*b.Priority + 0.05)
		}
		order[i] = ranked{block: b, merit: merit}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].merit > order[j].merit
	})

	result := make([]*blocks.Block, len(order))
	for i, r := range order {
		result[i] = r.block
	}
	return result
}

// buildCandidate greedily places each block at the earliest free slot
// inside one of its possible periods. Placement is tracked per block,
// not per ID: identifiers are not required to be unique, and each block
// sharing an ID must be placed or reported unscheduled on its own.
func buildCandidate(order, all []*blocks.Block, periods *prescheduler.Map) *Schedule {
	var units []Unit
	var busy []timeline.Period

	placed := make(map[*blocks.Block]bool, len(order))
	for _, block := range order {
		available, ok := periods.Get(block.ID)
		if !ok || len(available) == 0 {
			continue
		}

		slot, found := earliestSlot(block.TotalDuration(), available, busy)
		if !found {
			continue
		}

		units = append(units, Unit{Block: block, Period: slot})
		busy = insertSorted(busy, slot)
		placed[block] = true
	}

	// Report units in time order regardless of placement order.
	sort.Slice(units, func(i, j int) bool {
		return units[i].Period.Begin.Before(units[j].Period.Begin)
	})

	var unscheduled []*blocks.Block
	for _, block := range all {
		if !placed[block] {
			unscheduled = append(unscheduled, block)
		}
	}

	return &Schedule{
		Units:       units,
		Unscheduled: unscheduled,
		Fitness:     fitnessOf(units, all),
	}
}

// earliestSlot finds the first window of the given duration inside one of
// the candidate periods that does not collide with the busy list. The
// busy list is sorted and disjoint.
func earliestSlot(duration time.Duration, available, busy []timeline.Period) (timeline.Period, bool) {
	for _, p := range available {
		start := p.Begin
		for _, b := range busy {
			if !b.Begin.Before(start.Add(duration)) {
				break // busy period starts after our window ends
			}
			if b.End.After(start) {
				start = b.End
			}
		}
		if !start.Add(duration).After(p.End) {
			return timeline.Period{Begin: start, End: start.Add(duration)}, true
		}
	}
	return timeline.Period{}, false
}

func insertSorted(busy []timeline.Period, p timeline.Period) []timeline.Period {
	idx := sort.Search(len(busy), func(i int) bool {
		return busy[i].Begin.After(p.Begin)
	})
	busy = append(busy, timeline.Period{})
	copy(busy[idx+1:], busy[idx:])
	busy[idx] = p
	return busy
}

// newRNG builds the candidate-perturbation source: seeded when seed is
// non-negative, time-seeded (non-deterministic, documented) otherwise.
func newRNG(seed int64) *rand.Rand {
	if seed >= 0 {
		return rand.New(rand.NewSource(seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
