package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-obs/skysched/internal/config"
	"github.com/meridian-obs/skysched/internal/engine"
	"github.com/meridian-obs/skysched/internal/runner"
	"github.com/meridian-obs/skysched/internal/store"
)

const testInput = `{
	"instrument": {
		"location": {"latitude": 28.76, "longitude": -17.88}
	},
	"executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-11T00:00:00Z"},
	"schedulingBlocks": [
		{"EngineeringTask": {"name": "Calibration", "priority": 1, "duration": {"minutes": 15}}}
	]
}`

func newTestWatcher(t *testing.T) (*Watcher, *store.Store, string) {
	t.Helper()

	dir := t.TempDir()

	dbCfg := config.Default().Database
	dbCfg.Path = filepath.Join(t.TempDir(), "runs.db")
	db, err := store.Open(&dbCfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	runs := store.NewStore(db)

	r := runner.New(runner.Options{Store: runs, Defaults: engine.DefaultParams()})

	params := engine.DefaultParams()
	params.Seed = 42

	w, err := New(config.WatchConfig{
		Path:     dir,
		Pattern:  "*.json",
		Debounce: 50 * time.Millisecond,
	}, r, params)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	return w, runs, dir
}

func TestScanProcessesExistingFiles(t *testing.T) {
	w, runs, dir := newTestWatcher(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "night1.json"), []byte(testInput), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	w.Scan(ctx)

	records, err := runs.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "watch", records[0].Source)
	require.Equal(t, store.StatusSucceeded, records[0].Status)
}

func TestScanSkipsAlreadyProcessed(t *testing.T) {
	w, runs, dir := newTestWatcher(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "night1.json"), []byte(testInput), 0o644))

	w.Scan(ctx)
	w.Scan(ctx)

	records, err := runs.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestScanRecordsFailures(t *testing.T) {
	w, runs, dir := newTestWatcher(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"nope": true}`), 0o644))

	w.Scan(ctx)

	records, err := runs.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, store.StatusFailed, records[0].Status)
}

func TestEventDrivenProcessing(t *testing.T) {
	w, runs, dir := newTestWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.json"), []byte(testInput), 0o644))

	require.Eventually(t, func() bool {
		records, err := runs.List(ctx, 10, 0)
		return err == nil && len(records) == 1
	}, 5*time.Second, 50*time.Millisecond)
}
