package boundary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPipelineInput = `{
	"observatory": "Roque de los Muchachos",
	"instrument": {
		"name": "MER-1",
		"location": {"name": "La Palma", "latitude": 28.76, "longitude": -17.88, "altitude": 2396},
		"capabilities": {"min_elevation": 20, "max_elevation": 85}
	},
	"executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-12T00:00:00Z"},
	"schedulingBlocks": [
		{"ObservationTask": {
			"name": "M31 survey",
			"priority": 4,
			"duration": {"hours": 1},
			"targetCoordinates": {"ra": "00:42:44.3", "dec": "+41:16:09"}
		}},
		{"EngineeringTask": {"name": "Flat fields", "priority": 1, "duration": {"minutes": 30}}}
	]
}`

func TestRunPipeline(t *testing.T) {
	s := NewSession()

	result, err := s.RunPipeline([]byte(testPipelineInput), testParams())
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Empty(t, s.LastError())

	var sched struct {
		Units []struct {
			TaskID   string `json:"task_id"`
			TaskName string `json:"task_name"`
			Begin    string `json:"begin"`
			End      string `json:"end"`
		} `json:"units"`
		ScheduledCount   int `json:"scheduled_count"`
		UnscheduledCount int `json:"unscheduled_count"`
	}
	require.NoError(t, json.Unmarshal(result.Schedule, &sched))
	require.Equal(t, 2, sched.ScheduledCount+sched.UnscheduledCount)
	require.Len(t, sched.Units, sched.ScheduledCount)

	var stats struct {
		TotalBlocks int `json:"total_blocks"`
	}
	require.NoError(t, json.Unmarshal(result.Stats, &stats))
	require.Equal(t, 2, stats.TotalBlocks)

	// The blocks artifact is canonical and loads again unchanged.
	reloaded, err := s.LoadBlocks(result.Blocks)
	require.NoError(t, err)
	count, err := s.BlocksCount(reloaded)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var periods []struct {
		BlockID string `json:"block_id"`
	}
	require.NoError(t, json.Unmarshal(result.PossiblePeriods, &periods))
	require.Len(t, periods, 2)

	var ctx struct {
		Instrument struct {
			Name string `json:"name"`
		} `json:"instrument"`
	}
	require.NoError(t, json.Unmarshal(result.Context, &ctx))
	require.Equal(t, "MER-1", ctx.Instrument.Name)
}

func TestRunPipelineErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Code
	}{
		{"empty input", "", CodeNullPointer},
		{"invalid syntax", `{"instrument": `, CodeInvalidJSON},
		{"missing blocks", `{"instrument": {"location": {"latitude": 28.76, "longitude": -17.88}}, "executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-12T00:00:00Z"}}`, CodeDeserialization},
		{"missing instrument", `{"executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-12T00:00:00Z"}, "schedulingBlocks": []}`, CodeDeserialization},
		{"bad block element", `{"instrument": {"location": {"latitude": 28.76, "longitude": -17.88}}, "executionPeriod": {"begin": "2026-01-10T00:00:00Z", "end": "2026-01-12T00:00:00Z"}, "schedulingBlocks": [{"ObservationTask": {"priority": 1}}]}`, CodeDeserialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			result, err := s.RunPipeline([]byte(tt.input), testParams())
			require.Error(t, err)
			require.Nil(t, result)
			require.Equal(t, tt.want, CodeOf(err))
			require.NotEmpty(t, s.LastError())
		})
	}
}

func TestRunPipelineInvalidParams(t *testing.T) {
	s := NewSession()
	params := testParams()
	params.MaxIterations = -5

	result, err := s.RunPipeline([]byte(testPipelineInput), params)
	require.Error(t, err)
	require.Nil(t, result)
	require.Equal(t, CodeSchedulingFailed, CodeOf(err))
}

func TestRunPipelineFromFile(t *testing.T) {
	s := NewSession()
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(testPipelineInput), 0o644))

	result, err := s.RunPipelineFromFile(path, testParams())
	require.NoError(t, err)
	require.NotNil(t, result)

	_, err = s.RunPipelineFromFile(filepath.Join(t.TempDir(), "missing.json"), testParams())
	require.Equal(t, CodeIO, CodeOf(err))
}
