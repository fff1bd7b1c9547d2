package models

import (
	"fmt"
	"math"
	"strings"
)

// SourceMedia identifies a probed input video.
type SourceMedia struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"` // seconds, as reported by the probe
}

// NewSourceMedia creates a SourceMedia after checking the probed values.
func NewSourceMedia(path string, duration float64) (SourceMedia, error) {
	src := SourceMedia{Path: path, Duration: duration}
	if err := src.Validate(); err != nil {
		return SourceMedia{}, err
	}
	return src, nil
}

// Validate checks that the source has a path and a usable duration.
func (s SourceMedia) Validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("%w: source path cannot be empty", ErrInvalidArgument)
	}
	if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) || s.Duration <= 0 {
		return fmt.Errorf("%w: source duration must be positive, got %v", ErrInvalidArgument, s.Duration)
	}
	return nil
}
