// Package timeline provides the UTC time and period primitives shared by
// the scheduling engine: ISO 8601 parsing, half-open time periods, and
// merge/intersection operations on ordered period lists.
package timeline

import (
	"fmt"
	"sort"
	"time"
)

// Accepted input layouts. Exports always use RFC 3339 UTC.
var parseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an ISO 8601 timestamp. Timestamps without an explicit
// zone are interpreted as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatTime renders a timestamp as RFC 3339 UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Period is a half-open time window [Begin, End).
type Period struct {
	Begin time.Time
	End   time.Time
}

// NewPeriod builds a period, rejecting end-before-begin.
func NewPeriod(begin, end time.Time) (Period, error) {
	if end.Before(begin) {
		return Period{}, fmt.Errorf("period end %s before begin %s", FormatTime(end), FormatTime(begin))
	}
	return Period{Begin: begin.UTC(), End: end.UTC()}, nil
}

// ParsePeriod parses begin/end timestamp strings into a period.
func ParsePeriod(begin, end string) (Period, error) {
	b, err := ParseTime(begin)
	if err != nil {
		return Period{}, fmt.Errorf("parsing period begin: %w", err)
	}
	e, err := ParseTime(end)
	if err != nil {
		return Period{}, fmt.Errorf("parsing period end: %w", err)
	}
	return NewPeriod(b, e)
}

// Duration returns the period length.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Begin)
}

// DurationDays returns the period length in days.
func (p Period) DurationDays() float64 {
	return p.Duration().Hours() / 24.0
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Begin.IsZero() && p.End.IsZero()
}

// Contains reports whether the window [begin, end) fits inside p.
func (p Period) Contains(begin, end time.Time) bool {
	return !begin.Before(p.Begin) && !end.After(p.End)
}

// Overlaps reports whether two half-open periods intersect.
func (p Period) Overlaps(other Period) bool {
	return p.Begin.Before(other.End) && other.Begin.Before(p.End)
}

// Merge collapses an ordered-or-unordered list of periods into a sorted
// list of disjoint periods. Touching periods are joined.
func Merge(periods []Period) []Period {
	if len(periods) <= 1 {
		return append([]Period(nil), periods...)
	}

	sorted := append([]Period(nil), periods...)
	sortPeriods(sorted)

	merged := sorted[:1]
	for _, p := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !p.Begin.After(last.End) {
			if p.End.After(last.End) {
				last.End = p.End
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// Intersect returns the disjoint intersection of two sorted disjoint
// period lists.
func Intersect(a, b []Period) []Period {
	var out []Period
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		begin := maxTime(a[i].Begin, b[j].Begin)
		end := minTime(a[i].End, b[j].End)
		if begin.Before(end) {
			out = append(out, Period{Begin: begin, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

func sortPeriods(periods []Period) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Begin.Before(periods[j].Begin)
	})
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
