// Package blocks defines the scheduling block hierarchy (observation
// tasks, engineering tasks, and composite sequences) and its JSON wire
// codec.
package blocks

import (
	"time"
)

// Kind discriminates the block variants on the wire and in memory.
type Kind string

const (
	KindObservation Kind = "ObservationTask"
	KindEngineering Kind = "EngineeringTask"
	KindSequence    Kind = "Sequence"
)

// Duration is the requested observing time, split the way the wire
// schema carries it.
type Duration struct {
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// AsDuration converts to a time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d.Days)*24*time.Hour +
		time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second
}

// DurationOf converts back into the wire split.
func DurationOf(d time.Duration) Duration {
	total := int(d / time.Second)
	return Duration{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// Coordinates are target sky coordinates in degrees (ICRS).
type Coordinates struct {
	RA  float64
	Dec float64
}

// Block is one schedulable unit of work. Immutable once decoded.
type Block struct {
	ID       string
	Name     string
	Priority float64
	Kind     Kind
	Duration Duration

	// Target is set for observation tasks that carry sky coordinates.
	Target *Coordinates

	// Children holds the sub-blocks of a sequence, in order.
	Children []*Block
}

// TotalDuration returns the block's requested duration; for a sequence it
// is the sum of its children.
func (b *Block) TotalDuration() time.Duration {
	if b.Kind != KindSequence {
		return b.Duration.AsDuration()
	}
	var total time.Duration
	for _, child := range b.Children {
		total += child.TotalDuration()
	}
	return total
}

// Collection is an ordered set of blocks. Identifier uniqueness is not
// enforced here.
type Collection struct {
	Blocks []*Block
}

// Len returns the number of top-level blocks.
func (c *Collection) Len() int {
	return len(c.Blocks)
}

// At returns the block at index, or nil if out of range.
func (c *Collection) At(index int) *Block {
	if index < 0 || index >= len(c.Blocks) {
		return nil
	}
	return c.Blocks[index]
}

// Clone returns a shallow copy of the collection's block list. Blocks are
// immutable after decoding, so sharing the pointers is safe; the copy only
// detaches the list itself so derived entities survive the collection
// being destroyed.
func (c *Collection) Clone() []*Block {
	return append([]*Block(nil), c.Blocks...)
}
