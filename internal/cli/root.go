// Package cli implements the skysched command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridian-obs/skysched/internal/boundary"
	"github.com/meridian-obs/skysched/internal/config"
	"github.com/meridian-obs/skysched/internal/prescheduler"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "skysched",
	Short: "Observation scheduler for ground-based instruments",
	Long: `Skysched plans observation schedules for ground-based instruments.

It reads a set of scheduling blocks (observation tasks, engineering
tasks, and sequences), computes when each target is visible from the
instrument's site, and packs the blocks into the execution window.

Schedule a night from an input file:
  skysched run night.json

Start the HTTP API:
  skysched serve`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./skysched.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig resolves the effective configuration: the --config file when
// given, otherwise the usual search paths, otherwise built-in defaults.
func loadConfig() *config.Config {
	if cfgFile != "" {
		path, err := config.ConfigFilePath(cfgFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfgFile).Msg("Failed to resolve config file")
		}
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to load config")
		}
		log.Debug().Str("file", path).Msg("Using config file")
		return cfg
	}

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Warn().Err(err).Msg("No usable config file found, using defaults")
		cfg = config.Default()
	}
	return cfg
}

// setupLogging configures zerolog before any config file is read; commands
// that load a config re-apply the configured level and format.
func setupLogging() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// applyLogging reconfigures the global logger from the loaded config.
// The --verbose flag still wins on level.
func applyLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stderr)
	if cfg.Logging.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	ctx := logger.With()
	if cfg.Logging.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Logging.Caller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}

// newSession builds a scheduling session honoring the scheduler section
// of the config.
func newSession(cfg *config.Config) *boundary.Session {
	var opts []boundary.SessionOption
	if cfg.Scheduler.StrictBlocks {
		opts = append(opts, boundary.WithStrictBlocks())
	}
	if cfg.Scheduler.SampleStep > 0 {
		opts = append(opts, boundary.WithPreschedulerOptions(prescheduler.Options{
			SampleStep: cfg.Scheduler.SampleStep,
		}))
	}
	return boundary.NewSession(opts...)
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Version returns the version string.
func Version() string {
	return fmt.Sprintf("skysched version %s", version)
}
