package prescheduler

import (
	"math"
	"testing"
	"time"

	"github.com/meridian-obs/skysched/internal/blocks"
	"github.com/meridian-obs/skysched/internal/instrument"
	"github.com/meridian-obs/skysched/internal/timeline"
)

func testInstrument() *instrument.Instrument {
	return &instrument.Instrument{
		Name: "Test scope",
		Location: instrument.Location{
			Latitude:  28.7606,
			Longitude: -17.8810,
			Altitude:  2396,
		},
		Capabilities: instrument.Capabilities{
			MinElevation: 20,
			MaxElevation: 85,
		},
	}
}

func testWindow(t *testing.T) timeline.Period {
	t.Helper()
	p, err := timeline.ParsePeriod("2025-01-01T18:00:00Z", "2025-01-02T08:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAltitudePolaris(t *testing.T) {
	// Polaris sits within a degree of the pole: its altitude roughly
	// equals the observer's latitude at any time.
	when := time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC)
	alt := altitudeDeg(when, 37.95, 89.26, 28.76, -17.88)
	if math.Abs(alt-28.76) > 1.5 {
		t.Errorf("Polaris altitude = %v, want about 28.76", alt)
	}
}

func TestSunAltitudeDayNight(t *testing.T) {
	// Local noon on La Palma: sun well up. Local midnight: well down.
	noon := time.Date(2025, 6, 21, 13, 0, 0, 0, time.UTC)
	midnight := time.Date(2025, 6, 21, 1, 0, 0, 0, time.UTC)

	if alt := sunAltitudeDeg(noon, 28.76, -17.88); alt < 30 {
		t.Errorf("noon sun altitude = %v, want > 30", alt)
	}
	if alt := sunAltitudeDeg(midnight, 28.76, -17.88); alt > -10 {
		t.Errorf("midnight sun altitude = %v, want < -10", alt)
	}
}

func TestComputeUntargetedBlocks(t *testing.T) {
	col := &blocks.Collection{Blocks: []*blocks.Block{
		{ID: "eng-1", Name: "Calibration", Kind: blocks.KindEngineering},
		{ID: "obs-1", Name: "Blind pointing", Kind: blocks.KindObservation},
	}}

	window := testWindow(t)
	m, err := Compute(testInstrument(), col, window, Options{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for _, id := range []string{"eng-1", "obs-1"} {
		periods, ok := m.Get(id)
		if !ok {
			t.Fatalf("no entry for %s", id)
		}
		if len(periods) != 1 || !periods[0].Begin.Equal(window.Begin) || !periods[0].End.Equal(window.End) {
			t.Errorf("%s periods = %v, want full window", id, periods)
		}
	}
}

func TestComputeDuplicateIDsKeepAllEntries(t *testing.T) {
	// Identifiers are not required to be unique: every block gets its own
	// entry, and Get resolves a shared ID to the first occurrence.
	col := &blocks.Collection{Blocks: []*blocks.Block{
		{ID: "dup", Name: "Calibration", Kind: blocks.KindEngineering},
		{
			ID:     "dup",
			Name:   "M31",
			Kind:   blocks.KindObservation,
			Target: &blocks.Coordinates{RA: 10.68, Dec: 41.27},
		},
	}}

	window := testWindow(t)
	m, err := Compute(testInstrument(), col, window, Options{SampleStep: 5 * time.Minute})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if len(m.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(m.Entries))
	}
	if m.Entries[0].BlockName != "Calibration" || m.Entries[1].BlockName != "M31" {
		t.Errorf("entries out of order: %+v", m.Entries)
	}

	periods, ok := m.Get("dup")
	if !ok {
		t.Fatal("no entry for dup")
	}
	// The first occurrence is unconstrained and spans the full window;
	// the targeted twin's periods are narrower.
	if len(periods) != 1 || !periods[0].Begin.Equal(window.Begin) || !periods[0].End.Equal(window.End) {
		t.Errorf("Get(dup) = %v, want the first occurrence's full window", periods)
	}
}

func TestComputeTargetedBlockStructure(t *testing.T) {
	col := &blocks.Collection{Blocks: []*blocks.Block{
		{
			ID:       "obs-m31",
			Name:     "M31",
			Kind:     blocks.KindObservation,
			Target:   &blocks.Coordinates{RA: 10.68, Dec: 41.27},
			Priority: 1,
		},
	}}

	window := testWindow(t)
	m, err := Compute(testInstrument(), col, window, Options{SampleStep: 5 * time.Minute})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	periods, ok := m.Get("obs-m31")
	if !ok {
		t.Fatal("no entry for obs-m31")
	}

	// Structural invariants: ordered, disjoint, inside the window.
	for i, p := range periods {
		if p.End.Before(p.Begin) {
			t.Errorf("period %d inverted: %v", i, p)
		}
		if !window.Contains(p.Begin, p.End) {
			t.Errorf("period %d escapes the window: %v", i, p)
		}
		if i > 0 && periods[i-1].End.After(p.Begin) {
			t.Errorf("periods %d and %d overlap", i-1, i)
		}
	}
}

func TestComputeDaytimeWindowIsDarkConstrained(t *testing.T) {
	// A window entirely in local daytime leaves a targeted block with no
	// candidate periods.
	window, err := timeline.ParsePeriod("2025-06-21T11:00:00Z", "2025-06-21T16:00:00Z")
	if err != nil {
		t.Fatal(err)
	}

	col := &blocks.Collection{Blocks: []*blocks.Block{
		{ID: "b", Name: "Daytime target", Kind: blocks.KindObservation,
			Target: &blocks.Coordinates{RA: 250, Dec: 30}},
	}}

	m, err := Compute(testInstrument(), col, window, Options{SampleStep: 5 * time.Minute})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if periods, _ := m.Get("b"); len(periods) != 0 {
		t.Errorf("daytime periods = %v, want none", periods)
	}
}

func TestComputeSequenceIntersection(t *testing.T) {
	seq := &blocks.Block{
		ID:   "seq",
		Name: "Pair",
		Kind: blocks.KindSequence,
		Children: []*blocks.Block{
			{ID: "c1", Name: "Eng", Kind: blocks.KindEngineering},
			{ID: "c2", Name: "Eng2", Kind: blocks.KindEngineering},
		},
	}
	window := testWindow(t)

	m, err := Compute(testInstrument(), &blocks.Collection{Blocks: []*blocks.Block{seq}}, window, Options{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	periods, _ := m.Get("seq")
	if len(periods) != 1 || !periods[0].Begin.Equal(window.Begin) {
		t.Errorf("sequence periods = %v", periods)
	}
}

func TestComputeNilArguments(t *testing.T) {
	if _, err := Compute(nil, &blocks.Collection{}, timeline.Period{}, Options{}); err == nil {
		t.Error("expected error for nil instrument")
	}
	if _, err := Compute(testInstrument(), nil, timeline.Period{}, Options{}); err == nil {
		t.Error("expected error for nil collection")
	}
}
