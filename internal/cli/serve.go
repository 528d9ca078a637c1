package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridian-obs/skysched/internal/config"
	"github.com/meridian-obs/skysched/internal/runner"
	"github.com/meridian-obs/skysched/internal/server"
	"github.com/meridian-obs/skysched/internal/storage"
	"github.com/meridian-obs/skysched/internal/store"
	"github.com/meridian-obs/skysched/internal/watch"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the skysched HTTP server.

The server exposes:
  - POST /api/schedule     run the pipeline over a submitted document
  - POST /api/periods      compute possible periods without scheduling
  - GET  /api/runs         run history
  - GET  /metrics          Prometheus metrics

Runs are recorded in the history database and, when a storage backend
is configured, their artifacts are archived. When watch.path is set the
input directory watcher runs alongside the server.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", config.DefaultHost, "Host to bind to")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	applyLogging(cfg)

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
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
	runs := store.NewStore(db)

	archiver, err := buildArchiver(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	r := runner.New(runner.Options{
		Session:  newSession(cfg),
		Store:    runs,
		Archiver: archiver,
		Defaults: params,
	})

	srv := server.New(cfg, server.Options{
		Runner:   r,
		Runs:     runs,
		Archiver: archiver,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	if cfg.Watch.Path != "" {
		watcher, watchErr := watch.New(cfg.Watch, r, params)
		if watchErr != nil {
			log.Warn().Err(watchErr).Msg("Failed to set up input watcher, continuing without it")
		} else if watchErr = watcher.Start(ctx); watchErr != nil {
			log.Warn().Err(watchErr).Msg("Failed to start input watcher, continuing without it")
		} else {
			defer func() { _ = watcher.Stop() }()
			log.Info().Str("path", cfg.Watch.Path).Msg("Input watching enabled")
		}
	}

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}

	<-ctx.Done()
	return nil
}

// buildArchiver wires the configured default storage backend, or nil
// when artifact storage is disabled.
func buildArchiver(ctx context.Context, cfg *config.Config) (*storage.Archiver, error) {
	if cfg.Storage.Default == "" {
		return nil, nil
	}
	backendCfg, ok := cfg.Storage.Backends[cfg.Storage.Default]
	if !ok {
		return nil, fmt.Errorf("storage backend %q is not defined", cfg.Storage.Default)
	}
	backend, err := storage.NewBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("storage backend %q: %w", cfg.Storage.Default, err)
	}
	return storage.NewArchiver(backend), nil
}
