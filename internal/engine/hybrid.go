package engine

import (
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/prescheduler"
)

// workerSeedStride separates the derived per-worker seeds so their
// perturbation streams do not trivially correlate.
const workerSeedStride = 9973

// runHybrid fans the accumulative search out over a fixed-size worker
// pool, each worker exploring an independently seeded candidate stream,
// then joins and returns the single best schedule. The call blocks until
// every worker finishes; the time limit bounds each worker's search, not
// the join.
func runHybrid(all []*blocks.Block, periods *prescheduler.Map, params Params) (*Schedule, error) {
	seeds := workerSeeds(params)

	log.Debug().
		Int("workers", len(seeds)).
		Int("blocks", len(all)).
		Msg("Starting hybrid accumulative search")

	results := make([]*Schedule, len(seeds))
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(slot int, seed int64) {
			defer wg.Done()
			results[slot] = runAccumulative(all, periods, params, seed)
		}(i, seed)
	}
	wg.Wait()

	best := results[0]
	for _, candidate := range results[1:] {
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best, nil
}

// workerSeeds resolves the per-worker seed list: explicit seeds win, then
// seeds derived from the base seed, then non-deterministic ones.
func workerSeeds(params Params) []int64 {
	if len(params.Seeds) > 0 {
		return params.Seeds
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}

	seeds := make([]int64, workers)
	if params.Seed >= 0 {
		for i := range seeds {
			seeds[i] = params.Seed + int64(i)*workerSeedStride
		}
		return seeds
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}
