package timeline

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339 with zone",
			input: "2025-01-01T00:00:00Z",
			want:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "naive datetime treated as UTC",
			input: "2024-03-15T20:00:00",
			want:  time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2024-03-15",
			want:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "not-a-time",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTime(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTime(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-01-01T00:00:00Z", "2025-01-02T00:00:00Z")
	if err != nil {
		t.Fatalf("ParsePeriod() error = %v", err)
	}
	if p.DurationDays() != 1.0 {
		t.Errorf("DurationDays() = %v, want 1.0", p.DurationDays())
	}

	if _, err := ParsePeriod("2025-01-02T00:00:00Z", "2025-01-01T00:00:00Z"); err == nil {
		t.Error("expected error for end before begin")
	}
}

func TestPeriodDurationDays(t *testing.T) {
	// duration_days must equal (end - begin) in days for any begin <= end.
	cases := []struct {
		begin, end string
		want       float64
	}{
		{"2025-01-01T00:00:00Z", "2025-01-01T00:00:00Z", 0},
		{"2025-01-01T00:00:00Z", "2025-01-01T12:00:00Z", 0.5},
		{"2025-01-01T00:00:00Z", "2025-01-11T00:00:00Z", 10},
	}
	for _, c := range cases {
		p, err := ParsePeriod(c.begin, c.end)
		if err != nil {
			t.Fatalf("ParsePeriod(%s, %s) error = %v", c.begin, c.end, err)
		}
		if diff := p.DurationDays() - c.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("DurationDays() = %v, want %v", p.DurationDays(), c.want)
		}
	}
}

func mustPeriod(t *testing.T, begin, end string) Period {
	t.Helper()
	p, err := ParsePeriod(begin, end)
	if err != nil {
		t.Fatalf("ParsePeriod(%s, %s) error = %v", begin, end, err)
	}
	return p
}

func TestMerge(t *testing.T) {
	got := Merge([]Period{
		mustPeriod(t, "2025-01-01T06:00:00Z", "2025-01-01T08:00:00Z"),
		mustPeriod(t, "2025-01-01T00:00:00Z", "2025-01-01T02:00:00Z"),
		mustPeriod(t, "2025-01-01T01:00:00Z", "2025-01-01T03:00:00Z"),
	})

	if len(got) != 2 {
		t.Fatalf("Merge() returned %d periods, want 2", len(got))
	}
	if !got[0].Begin.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) ||
		!got[0].End.Equal(time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("merged[0] = %v", got[0])
	}
	if !got[1].Begin.Equal(time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("merged[1] = %v", got[1])
	}
}

func TestIntersect(t *testing.T) {
	a := []Period{
		mustPeriod(t, "2025-01-01T00:00:00Z", "2025-01-01T04:00:00Z"),
		mustPeriod(t, "2025-01-01T08:00:00Z", "2025-01-01T12:00:00Z"),
	}
	b := []Period{
		mustPeriod(t, "2025-01-01T02:00:00Z", "2025-01-01T10:00:00Z"),
	}

	got := Intersect(a, b)
	if len(got) != 2 {
		t.Fatalf("Intersect() returned %d periods, want 2", len(got))
	}
	if !got[0].Begin.Equal(time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)) ||
		!got[0].End.Equal(time.Date(2025, 1, 1, 4, 0, 0, 0, time.UTC)) {
		t.Errorf("intersect[0] = %v", got[0])
	}
	if !got[1].Begin.Equal(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)) ||
		!got[1].End.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("intersect[1] = %v", got[1])
	}

	if out := Intersect(a, nil); len(out) != 0 {
		t.Errorf("Intersect(a, nil) = %v, want empty", out)
	}
}

func TestOverlapsAndContains(t *testing.T) {
	p := mustPeriod(t, "2025-01-01T00:00:00Z", "2025-01-02T00:00:00Z")

	if !p.Overlaps(mustPeriod(t, "2025-01-01T12:00:00Z", "2025-01-03T00:00:00Z")) {
		t.Error("expected overlap")
	}
	// Half-open: touching periods do not overlap.
	if p.Overlaps(mustPeriod(t, "2025-01-02T00:00:00Z", "2025-01-03T00:00:00Z")) {
		t.Error("touching periods must not overlap")
	}
	if !p.Contains(p.Begin, p.End) {
		t.Error("period must contain itself")
	}
}
