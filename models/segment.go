// Package models provides core data structures for the clip splitter.
package models

import (
	"fmt"
)

// Segment is one boundary pair of a split plan.
//
// Boundaries are whole seconds. A plan is an ordered sequence of segments
// where segment i+1 starts exactly where segment i ends, starting at 0.
//
// Use NewSegment to create a validated Segment instance.
type Segment struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSegment creates a new Segment with validation.
//
// Returns an error if:
//   - Start is negative
//   - End is not greater than Start
func NewSegment(index, start, end int) (Segment, error) {
	s := Segment{Index: index, Start: start, End: end}
	if err := s.Validate(); err != nil {
		return Segment{}, fmt.Errorf("invalid segment: %w", err)
	}
	return s, nil
}

// Validate checks if the Segment describes a non-empty forward range.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("start must not be negative")
	}
	if s.End <= s.Start {
		return fmt.Errorf("start must be less than end")
	}
	return nil
}

// Duration returns the length of the segment in seconds.
func (s Segment) Duration() int {
	return s.End - s.Start
}

// String returns the segment as "start-end" seconds, e.g. "60-90".
func (s Segment) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}
