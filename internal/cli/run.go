package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meridian-obs/skysched/internal/engine"
	"github.com/meridian-obs/skysched/internal/runner"
	"github.com/meridian-obs/skysched/internal/store"
)

var (
	runAlgorithm  string
	runIterations int
	runTimeLimit  float64
	runSeed       int64
	runWorkers    int
	runParamsFile string
	runOutput     string
	runNoHistory  bool
)

var runCmd = &cobra.Command{
	Use:   "run <input-file>",
	Short: "Schedule one input file",
	Long: `Run the full scheduling pipeline over a single input document.

The input file combines the instrument, the execution period, and the
scheduling blocks:

  {
    "instrument": {...},
    "executionPeriod": {"begin": "...", "end": "..."},
    "schedulingBlocks": [...]
  }

The schedule is printed to stdout. With --output, every artifact of the
run (context, blocks, possible periods, schedule, stats) is written to
the given directory instead.

Engine parameters come from the config file, then an optional --params
YAML file, then individual flags, each layer overriding the last.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runAlgorithm, "algorithm", "a", "", "scheduling algorithm (accumulative, hybrid_accumulative)")
	runCmd.Flags().IntVar(&runIterations, "iterations", 0, "candidate search bound (0 = engine default)")
	runCmd.Flags().Float64Var(&runTimeLimit, "time-limit", 0, "wall-clock bound in seconds (0 = unlimited)")
	runCmd.Flags().Int64Var(&runSeed, "seed", -1, "randomization seed (negative = non-deterministic)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "hybrid worker pool size (0 = hardware parallelism)")
	runCmd.Flags().StringVar(&runParamsFile, "params", "", "YAML file with engine parameters")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "directory to write run artifacts to")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "do not record the run in the history database")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	applyLogging(cfg)

	params, err := resolveParams(cmd, cfg.Scheduler.EngineParams)
	if err != nil {
		return err
	}

	input, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	opts := runner.Options{Session: newSession(cfg), Defaults: params}

	if !runNoHistory {
		db, dbErr := store.Open(&cfg.Database)
		if dbErr != nil {
			return fmt.Errorf("opening history database: %w", dbErr)
		}
		defer db.Close()
		opts.Store = store.NewStore(db)
	}

	archiver, err := buildArchiver(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	opts.Archiver = archiver

	r := runner.New(opts)

	result, err := r.Run(cmd.Context(), "cli", input, params)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", result.RunID).
		Int("scheduled", result.Stats.ScheduledCount).
		Int("unscheduled", result.Stats.UnscheduledCount).
		Float64("fitness", result.Stats.Fitness).
		Msg("Scheduling complete")

	if runOutput != "" {
		return writeArtifacts(runOutput, result)
	}

	fmt.Println(string(result.Artifact.Schedule))
	return nil
}

// resolveParams layers engine parameters: config defaults, then the
// --params YAML file, then individual flags.
func resolveParams(cmd *cobra.Command, fromConfig func() (engine.Params, error)) (engine.Params, error) {
	params, err := fromConfig()
	if err != nil {
		return engine.Params{}, fmt.Errorf("scheduler config: %w", err)
	}

	if runParamsFile != "" {
		data, err := os.ReadFile(runParamsFile)
		if err != nil {
			return engine.Params{}, fmt.Errorf("reading params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return engine.Params{}, fmt.Errorf("parsing params file: %w", err)
		}
	}

	if cmd.Flags().Changed("algorithm") {
		algorithm, err := engine.ParseAlgorithm(runAlgorithm)
		if err != nil {
			return engine.Params{}, err
		}
		params.Algorithm = algorithm
	}
	if cmd.Flags().Changed("iterations") {
		params.MaxIterations = runIterations
	}
	if cmd.Flags().Changed("time-limit") {
		params.TimeLimitSeconds = runTimeLimit
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = runSeed
	}
	if cmd.Flags().Changed("workers") {
		params.Workers = runWorkers
	}

	if err := params.Validate(); err != nil {
		return engine.Params{}, err
	}
	return params, nil
}

func writeArtifacts(dir string, result *runner.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	artifacts := map[string][]byte{
		"context.json":          result.Artifact.Context,
		"blocks.json":           result.Artifact.Blocks,
		"possible_periods.json": result.Artifact.PossiblePeriods,
		"schedule.json":         result.Artifact.Schedule,
		"stats.json":            result.Artifact.Stats,
	}
	for name, data := range artifacts {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	log.Info().Str("dir", dir).Msg("Artifacts written")
	return nil
}
