// Package engine implements the scheduling algorithms: accumulative
// (seeded greedy search over candidate orderings) and hybrid accumulative
// (parallel accumulative workers, best candidate wins).
package engine

import (
	"fmt"
	"strings"
)

// Algorithm selects the scheduling strategy. The numeric values are part
// of the stable external contract and must not change.
type Algorithm int

const (
	AlgorithmAccumulative       Algorithm = 0
	AlgorithmHybridAccumulative Algorithm = 1
)

// ParseAlgorithm maps the textual spellings used in config and params
// files onto the enum.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accumulative":
		return AlgorithmAccumulative, nil
	case "hybrid", "hybrid_accumulative", "hybrid-accumulative":
		return AlgorithmHybridAccumulative, nil
	}
	return 0, fmt.Errorf("unknown algorithm %q", s)
}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmAccumulative:
		return "accumulative"
	case AlgorithmHybridAccumulative:
		return "hybrid_accumulative"
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// DefaultMaxIterations is used when Params.MaxIterations is zero.
const DefaultMaxIterations = 50

// Params are the fixed-layout tuning knobs for one scheduler run.
type Params struct {
	// Algorithm picks the strategy.
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm"`

	// MaxIterations bounds the candidate search; 0 means the engine
	// default.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// TimeLimitSeconds bounds the wall-clock search per run (per worker
	// for the hybrid algorithm); 0 means unlimited.
	TimeLimitSeconds float64 `json:"time_limit_seconds" yaml:"time_limit_seconds"`

	// Seed drives the candidate randomization; negative means
	// non-deterministic.
	Seed int64 `json:"seed" yaml:"seed"`

	// Workers sizes the hybrid worker pool; 0 means available hardware
	// parallelism. Ignored by the plain accumulative algorithm.
	Workers int `json:"workers,omitempty" yaml:"workers"`

	// Seeds optionally pins one seed per hybrid worker; when set it also
	// fixes the worker count.
	Seeds []int64 `json:"seeds,omitempty" yaml:"seeds"`
}

// DefaultParams mirrors the engine's defaults: accumulative algorithm,
// engine-default iterations, no time limit, random seed.
func DefaultParams() Params {
	return Params{
		Algorithm: AlgorithmAccumulative,
		Seed:      -1,
	}
}

// Validate rejects parameter combinations the engine cannot honor.
func (p Params) Validate() error {
	switch p.Algorithm {
	case AlgorithmAccumulative, AlgorithmHybridAccumulative:
	default:
		return fmt.Errorf("unknown algorithm %d", int(p.Algorithm))
	}
	if p.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", p.MaxIterations)
	}
	if p.TimeLimitSeconds < 0 {
		return fmt.Errorf("time_limit_seconds must not be negative, got %v", p.TimeLimitSeconds)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", p.Workers)
	}
	return nil
}

func (p Params) maxIterations() int {
	if p.MaxIterations == 0 {
		return DefaultMaxIterations
	}
	return p.MaxIterations
}
