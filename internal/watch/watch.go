// Package watch feeds a directory of pipeline input files into the
// scheduler: filesystem events trigger runs as files appear, and an
// optional cron schedule re-scans the directory for anything missed.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/meridian-obs/skysched/internal/config"
	"github.com/meridian-obs/skysched/internal/engine"
	"github.com/meridian-obs/skysched/internal/metrics"
	"github.com/meridian-obs/skysched/internal/runner"
)

// Watcher processes input files from one directory. Files are matched
// by base name against the configured glob pattern; each file is run at
// most once per modification.
type Watcher struct {
	cfg    config.WatchConfig
	runner *runner.Runner
	params engine.Params

	fsw  *fsnotify.Watcher
	cron *cron.Cron

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// New builds a watcher over cfg.Path.
func New(cfg config.WatchConfig, r *runner.Runner, params engine.Params) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		cfg:     cfg,
		runner:  r,
		params:  params,
		fsw:     fsw,
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]time.Time),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. An initial scan picks up files that already
// exist; afterwards filesystem events (and the cron schedule, when
// configured) drive processing.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.cfg.Path); err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()

	if w.cfg.Schedule != "" {
		w.cron = cron.New()
		if _, err := w.cron.AddFunc(w.cfg.Schedule, func() { w.Scan(ctx) }); err != nil {
			return err
		}
		w.cron.Start()
		log.Info().Str("schedule", w.cfg.Schedule).Msg("Periodic rescan enabled")
	}

	log.Info().
		Str("path", w.cfg.Path).
		Str("pattern", w.cfg.Pattern).
		Msg("Watching for input files")

	w.Scan(ctx)
	return nil
}

// Stop shuts the watcher down and waits for in-flight work.
func (w *Watcher) Stop() error {
	close(w.done)
	if w.cron != nil {
		w.cron.Stop()
	}
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.debounce(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// debounce coalesces the event bursts editors and copies produce into a
// single run per file.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}
		w.Process(ctx, path)
	})
}

func (w *Watcher) matches(path string) bool {
	matched, err := filepath.Match(w.cfg.Pattern, filepath.Base(path))
	return err == nil && matched
}

// Scan processes every matching file in the directory that has not been
// run at its current modification time.
func (w *Watcher) Scan(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Path)
	if err != nil {
		log.Error().Err(err).Str("path", w.cfg.Path).Msg("Failed to scan watch directory")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.Path, entry.Name())
		if !w.matches(path) {
			continue
		}
		w.Process(ctx, path)
	}
}

// Process runs one input file unless its current version was already
// processed.
func (w *Watcher) Process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable input file")
		return
	}

	w.mu.Lock()
	if seen, ok := w.seen[path]; ok && !info.ModTime().After(seen) {
		w.mu.Unlock()
		return
	}
	w.seen[path] = info.ModTime()
	w.mu.Unlock()

	input, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to read input file")
		metrics.RecordWatchFile("read_error")
		return
	}

	result, err := w.runner.Run(ctx, "watch", input, w.params)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Input file failed to schedule")
		metrics.RecordWatchFile("failed")
		return
	}

	metrics.RecordWatchFile("succeeded")
	log.Info().
		Str("path", path).
		Str("run_id", result.RunID).
		Float64("fitness", result.Stats.Fitness).
		Msg("Input file scheduled")
}
