package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridian-obs/skysched/internal/runner"
	"github.com/meridian-obs/skysched/internal/store"
	"github.com/meridian-obs/skysched/internal/watch"
)

var (
	watchPattern  string
	watchSchedule string
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory for input files",
	Long: `Watch a directory and schedule every input file that appears in it.

Files already present are processed on startup; afterwards filesystem
events trigger runs as new files land. With --schedule, the directory
is additionally re-scanned on a cron expression.

Each run is recorded in the history database and archived to the
configured storage backend.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "glob pattern for input files (default from config)")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron expression for periodic re-scans")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	applyLogging(cfg)

	if len(args) == 1 {
		cfg.Watch.Path = args[0]
	}
	if cmd.Flags().Changed("pattern") {
		cfg.Watch.Pattern = watchPattern
	}
	if cmd.Flags().Changed("schedule") {
		cfg.Watch.Schedule = watchSchedule
	}
	if cfg.Watch.Path == "" {
		return fmt.Errorf("no watch directory: pass one as an argument or set watch.path")
	}

	params, err := cfg.Scheduler.EngineParams()
	if err != nil {
		return fmt.Errorf("scheduler config: %w", err)
	}

	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer db.Close()

	archiver, err := buildArchiver(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	r := runner.New(runner.Options{
		Session:  newSession(cfg),
		Store:    store.NewStore(db),
		Archiver: archiver,
		Defaults: params,
	})

	watcher, err := watch.New(cfg.Watch, r, params)
	if err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = watcher.Stop() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Info().Msg("Shutdown signal received")
	return nil
}
