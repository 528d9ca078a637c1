package blocks

import (
	"errors"
	"testing"
	"time"
)

const sampleCollection = `{
	"schedulingBlocks": [
		{
			"ObservationTask": {
				"name": "M31",
				"priority": 2.0,
				"duration": {"hours": 1, "minutes": 0, "seconds": 0},
				"targetCoordinates": {"ra": 10.68, "dec": 41.27}
			}
		},
		{
			"EngineeringTask": {
				"name": "Mirror calibration",
				"priority": 0.5,
				"duration": {"hours": 0, "minutes": 30, "seconds": 0}
			}
		}
	]
}`

func TestDecodeWrapperObject(t *testing.T) {
	col, err := Decode([]byte(sampleCollection), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if col.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", col.Len())
	}

	obs := col.At(0)
	if obs.Kind != KindObservation || obs.Name != "M31" || obs.Priority != 2.0 {
		t.Errorf("block 0 = %+v", obs)
	}
	if obs.ID == "" {
		t.Error("decoder must assign an id when absent")
	}
	if obs.Target == nil || obs.Target.RA != 10.68 || obs.Target.Dec != 41.27 {
		t.Errorf("Target = %+v", obs.Target)
	}
	if obs.Duration.AsDuration() != time.Hour {
		t.Errorf("Duration = %v, want 1h", obs.Duration.AsDuration())
	}

	eng := col.At(1)
	if eng.Kind != KindEngineering || eng.Target != nil {
		t.Errorf("block 1 = %+v", eng)
	}
}

func TestDecodeBareArray(t *testing.T) {
	col, err := Decode([]byte(`[
		{"ObservationTask": {"name": "Vega", "priority": 1.0}}
	]`), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if col.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", col.Len())
	}
}

func TestDecodeNamespacedDiscriminator(t *testing.T) {
	col, err := Decode([]byte(`[
		{
			"stars::scheduling_blocks::ObservationTask": {
				"name": "M51 (Whirlpool Galaxy)",
				"priority": 1.0,
				"duration": {"days": 0, "hours": 1, "minutes": 30, "seconds": 0},
				"targetCoordinates": {"ra": "13:29:52.7", "dec": "+47:11:43"}
			}
		}
	]`), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	b := col.At(0)
	if b.Kind != KindObservation {
		t.Errorf("Kind = %v", b.Kind)
	}
	// 13h29m52.7s in degrees.
	wantRA := (13.0 + 29.0/60 + 52.7/3600) * 15.0
	if diff := b.Target.RA - wantRA; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("RA = %v, want %v", b.Target.RA, wantRA)
	}
	wantDec := 47.0 + 11.0/60 + 43.0/3600
	if diff := b.Target.Dec - wantDec; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Dec = %v, want %v", b.Target.Dec, wantDec)
	}
	if b.Duration.AsDuration() != 90*time.Minute {
		t.Errorf("Duration = %v, want 1h30m", b.Duration.AsDuration())
	}
}

func TestDecodeNegativeDeclination(t *testing.T) {
	col, err := Decode([]byte(`[
		{"ObservationTask": {"name": "Fornax A", "priority": 1.0,
			"targetCoordinates": {"ra": "03:22:41.7", "dec": "-37:12:30"}}}
	]`), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if col.At(0).Target.Dec >= 0 {
		t.Errorf("Dec = %v, want negative", col.At(0).Target.Dec)
	}
}

func TestDecodeSequence(t *testing.T) {
	col, err := Decode([]byte(`[
		{
			"Sequence": {
				"name": "Survey pass",
				"priority": 1.5,
				"schedulingBlocks": [
					{"ObservationTask": {"name": "Field A", "priority": 1.0, "duration": {"hours": 1, "minutes": 0, "seconds": 0}}},
					{"ObservationTask": {"name": "Field B", "priority": 1.0, "duration": {"hours": 0, "minutes": 30, "seconds": 0}}}
				]
			}
		}
	]`), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	seq := col.At(0)
	if seq.Kind != KindSequence || len(seq.Children) != 2 {
		t.Fatalf("sequence = %+v", seq)
	}
	if seq.TotalDuration() != 90*time.Minute {
		t.Errorf("TotalDuration() = %v, want 1h30m", seq.TotalDuration())
	}
}

func TestDecodeUnknownDiscriminatorLenient(t *testing.T) {
	col, err := Decode([]byte(`[
		{"ObservationTask": {"name": "Kept", "priority": 1.0}},
		{"MaintenanceWindow": {"name": "Skipped", "priority": 1.0}}
	]`), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if col.Len() != 1 || col.At(0).Name != "Kept" {
		t.Errorf("lenient decode kept %d blocks", col.Len())
	}
}

func TestDecodeUnknownDiscriminatorStrict(t *testing.T) {
	_, err := Decode([]byte(`[
		{"MaintenanceWindow": {"name": "X", "priority": 1.0}}
	]`), DecodeOptions{Strict: true})
	if !errors.Is(err, ErrBlockDecode) {
		t.Errorf("err = %v, want ErrBlockDecode", err)
	}
}

func TestDecodeFailureClasses(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"syntax error", `{not json`, ErrSyntax},
		{"wrong top-level shape", `{"somethingElse": []}`, ErrShape},
		{"scalar top level", `42`, ErrShape},
		{"element not an object", `["just a string"]`, ErrBlockDecode},
		{"element with two keys", `[{"ObservationTask": {"name": "a", "priority": 1}, "extra": {}}]`, ErrBlockDecode},
		{"missing name", `[{"ObservationTask": {"priority": 1.0}}]`, ErrBlockDecode},
		{"bad declination", `[{"ObservationTask": {"name": "x", "priority": 1, "targetCoordinates": {"ra": 0, "dec": 100}}}]`, ErrBlockDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), DecodeOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	col, err := Decode([]byte(sampleCollection), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	encoded, err := Encode(col)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	again, err := Decode(encoded, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}

	if again.Len() != col.Len() {
		t.Fatalf("round trip count = %d, want %d", again.Len(), col.Len())
	}
	for i := range col.Blocks {
		before, after := col.Blocks[i], again.Blocks[i]
		if before.Name != after.Name || before.Priority != after.Priority {
			t.Errorf("block %d: (%q, %v) became (%q, %v)",
				i, before.Name, before.Priority, after.Name, after.Priority)
		}
		if before.ID != after.ID {
			t.Errorf("block %d: id %q became %q", i, before.ID, after.ID)
		}
	}
}

func TestDurationSplit(t *testing.T) {
	d := DurationOf(26*time.Hour + 31*time.Minute + 5*time.Second)
	want := Duration{Days: 1, Hours: 2, Minutes: 31, Seconds: 5}
	if d != want {
		t.Errorf("DurationOf() = %+v, want %+v", d, want)
	}
}
