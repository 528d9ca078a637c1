package boundary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-obs/skysched/internal/engine"
)

const testConfig = `{
	"observatory": "Roque de los Muchachos",
	"instrument": {
		"name": "MER-1",
		"location": {"name": "La Palma", "latitude": 28.76, "longitude": -17.88, "altitude": 2396},
		"capabilities": {"min_elevation": 20, "max_elevation": 85}
	},
	"executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-12T00:00:00Z"}
}`

const testBlocks = `{"schedulingBlocks": [
	{"stars::scheduling_blocks::ObservationTask": {
		"name": "M31 survey",
		"priority": 4,
		"duration": {"hours": 1},
		"targetCoordinates": {"ra": "00:42:44.3", "dec": "+41:16:09"}
	}},
	{"EngineeringTask": {"name": "Flat fields", "priority": 1, "duration": {"minutes": 30}}}
]}`

func testParams() engine.Params {
	params := engine.DefaultParams()
	params.Seed = 42
	return params
}

func newTestContext(t *testing.T, s *Session) ContextHandle {
	t.Helper()
	h, err := s.CreateContext([]byte(testConfig))
	require.NoError(t, err)
	return h
}

func newTestBlocks(t *testing.T, s *Session) BlocksHandle {
	t.Helper()
	h, err := s.LoadBlocks([]byte(testBlocks))
	require.NoError(t, err)
	return h
}

func TestCreateContextErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Code
	}{
		{"empty input", "", CodeNullPointer},
		{"invalid syntax", `{"instrument": `, CodeInvalidJSON},
		{"wrong top-level shape", `[1, 2, 3]`, CodeDeserialization},
		{"missing instrument", `{"executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-12T00:00:00Z"}}`, CodeDeserialization},
		{"missing execution period", `{"instrument": {"location": {"latitude": 28.76, "longitude": -17.88}}}`, CodeDeserialization},
		{"inverted execution period", `{"instrument": {"location": {"latitude": 28.76, "longitude": -17.88}}, "executionPeriod": {"begin": "2026-01-12T00:00:00Z", "end": "2026-01-10T00:00:00Z"}}`, CodeDeserialization},
		{"latitude out of range", `{"instrument": {"location": {"latitude": 128, "longitude": 0}}, "executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-12T00:00:00Z"}}`, CodeDeserialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			h, err := s.CreateContext([]byte(tt.input))
			require.Error(t, err)
			require.Equal(t, tt.want, CodeOf(err))
			require.True(t, h.IsZero(), "no handle should be produced on failure")
			require.NotEmpty(t, s.LastError())
		})
	}
}

func TestExportExecutionPeriod(t *testing.T) {
	s := NewSession()
	ctx := newTestContext(t, s)

	raw, err := s.ExportExecutionPeriod(ctx)
	require.NoError(t, err)

	var ep struct {
		Begin        string  `json:"begin"`
		End          string  `json:"end"`
		DurationDays float64 `json:"duration_days"`
	}
	require.NoError(t, json.Unmarshal(raw, &ep))
	require.Equal(t, "2026-01-10T00:00:00Z", ep.Begin)
	require.Equal(t, "2026-01-12T00:00:00Z", ep.End)
	require.InDelta(t, 2.0, ep.DurationDays, 1e-9)
}

func TestExportContextRoundTripsInstrument(t *testing.T) {
	s := NewSession()
	ctx := newTestContext(t, s)

	raw, err := s.ExportContext(ctx)
	require.NoError(t, err)

	var out struct {
		Instrument struct {
			Name     string `json:"name"`
			Location struct {
				Latitude float64 `json:"latitude"`
			} `json:"location"`
		} `json:"instrument"`
		Observatory string `json:"observatory"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, "MER-1", out.Instrument.Name)
	require.InDelta(t, 28.76, out.Instrument.Location.Latitude, 1e-9)
	require.Equal(t, "Roque de los Muchachos", out.Observatory)
}

func TestCreateContextFromFile(t *testing.T) {
	s := NewSession()
	path := filepath.Join(t.TempDir(), "context.json")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	h, err := s.CreateContextFromFile(path)
	require.NoError(t, err)
	require.False(t, h.IsZero())

	_, err = s.CreateContextFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Equal(t, CodeIO, CodeOf(err))
}

func TestLoadBlocksAndInspect(t *testing.T) {
	s := NewSession()
	h := newTestBlocks(t, s)

	count, err := s.BlocksCount(h)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	raw, err := s.BlockAt(h, 0)
	require.NoError(t, err)
	var tagged map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &tagged))
	require.Len(t, tagged, 1)

	_, err = s.BlockAt(h, 5)
	require.Equal(t, CodeInvalidHandle, CodeOf(err))
}

func TestRunSchedulerNullHandles(t *testing.T) {
	s := NewSession()
	blocksH := newTestBlocks(t, s)

	sched, err := s.RunScheduler(ContextHandle{}, blocksH, PeriodsHandle{}, testParams())
	require.Equal(t, CodeNullPointer, CodeOf(err))
	require.True(t, sched.IsZero())
	require.NotEmpty(t, s.LastError())
}

func TestUseAfterDestroy(t *testing.T) {
	s := NewSession()
	h := newTestBlocks(t, s)

	s.DestroyBlocks(h)
	_, err := s.BlocksCount(h)
	require.Equal(t, CodeInvalidHandle, CodeOf(err))

	// A second destroy of the same handle must be a harmless no-op.
	s.DestroyBlocks(h)
	s.DestroyBlocks(BlocksHandle{})
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	s := NewSession()
	old := newTestContext(t, s)
	s.DestroyContext(old)

	// The replacement reuses the freed slot under a new generation.
	fresh := newTestContext(t, s)
	_, err := s.ExportExecutionPeriod(fresh)
	require.NoError(t, err)

	_, err = s.ExportExecutionPeriod(old)
	require.Equal(t, CodeInvalidHandle, CodeOf(err))
}

func TestHandleFamiliesAreIndependent(t *testing.T) {
	s := NewSession()
	ctx := newTestContext(t, s)
	blocksH := newTestBlocks(t, s)

	periodsH, err := s.ComputePossiblePeriods(ctx, blocksH)
	require.NoError(t, err)
	schedH, err := s.RunScheduler(ctx, blocksH, periodsH, testParams())
	require.NoError(t, err)

	s.DestroyBlocks(blocksH)
	s.DestroyContext(ctx)

	_, err = s.ExportPossiblePeriods(periodsH)
	require.NoError(t, err, "possible periods must survive their source collection")
	_, err = s.ExportSchedule(schedH)
	require.NoError(t, err, "schedule must survive its source collection")
}

func TestLastErrorLifecycle(t *testing.T) {
	s := NewSession()

	_, err := s.CreateContext(nil)
	require.Error(t, err)
	require.NotEmpty(t, s.LastError())

	// A successful operation clears the slot.
	newTestContext(t, s)
	require.Empty(t, s.LastError())

	_, err = s.LoadBlocks([]byte("not json"))
	require.Error(t, err)
	require.NotEmpty(t, s.LastError())
	s.ClearError()
	require.Empty(t, s.LastError())
}

func TestGuardContainsPanic(t *testing.T) {
	err := guard(func() *Error { panic("boom") })
	require.NotNil(t, err)
	require.Equal(t, CodeUnknown, err.Code)
	require.Contains(t, err.Message, "boom")
}

func TestComputePossiblePeriodsExport(t *testing.T) {
	s := NewSession()
	ctx := newTestContext(t, s)
	blocksH := newTestBlocks(t, s)

	periodsH, err := s.ComputePossiblePeriods(ctx, blocksH)
	require.NoError(t, err)

	raw, err := s.ExportPossiblePeriods(periodsH)
	require.NoError(t, err)

	var entries []struct {
		BlockID   string `json:"block_id"`
		BlockName string `json:"block_name"`
		Periods   []struct {
			Begin string `json:"begin"`
			End   string `json:"end"`
		} `json:"periods"`
	}
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 2)

	for _, entry := range entries {
		require.NotEmpty(t, entry.BlockID)
		require.NotEmpty(t, entry.BlockName)
		for _, p := range entry.Periods {
			begin, err := time.Parse(time.RFC3339, p.Begin)
			require.NoError(t, err)
			end, err := time.Parse(time.RFC3339, p.End)
			require.NoError(t, err)
			require.True(t, begin.Before(end))
		}
	}
}

func TestScheduleStats(t *testing.T) {
	s := NewSession()
	ctx := newTestContext(t, s)
	blocksH := newTestBlocks(t, s)

	schedH, err := s.RunScheduler(ctx, blocksH, PeriodsHandle{}, testParams())
	require.NoError(t, err)

	raw, err := s.ScheduleStats(schedH)
	require.NoError(t, err)

	var stats struct {
		ScheduledCount   int     `json:"scheduled_count"`
		UnscheduledCount int     `json:"unscheduled_count"`
		TotalBlocks      int     `json:"total_blocks"`
		SchedulingRate   float64 `json:"scheduling_rate"`
		Fitness          float64 `json:"fitness"`
	}
	require.NoError(t, json.Unmarshal(raw, &stats))
	require.Equal(t, 2, stats.TotalBlocks)
	require.Equal(t, stats.TotalBlocks, stats.ScheduledCount+stats.UnscheduledCount)
	require.GreaterOrEqual(t, stats.SchedulingRate, 0.0)
	require.LessOrEqual(t, stats.SchedulingRate, 1.0)
	require.GreaterOrEqual(t, stats.Fitness, 0.0)
	require.LessOrEqual(t, stats.Fitness, 1.0)
}

func TestExportErrorsOnBadHandles(t *testing.T) {
	s := NewSession()

	_, err := s.ExportContext(ContextHandle{})
	require.Equal(t, CodeNullPointer, CodeOf(err))
	_, err = s.ExportBlocks(BlocksHandle{})
	require.Equal(t, CodeNullPointer, CodeOf(err))
	_, err = s.ExportSchedule(ScheduleHandle{})
	require.Equal(t, CodeNullPointer, CodeOf(err))

	ctx := newTestContext(t, s)
	s.DestroyContext(ctx)
	_, err = s.ExportContext(ctx)
	require.Equal(t, CodeInvalidHandle, CodeOf(err))
}
