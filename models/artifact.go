package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ArtifactStatus is the production status of a clip.
type ArtifactStatus string

const (
	ArtifactSuccess ArtifactStatus = "success"
	ArtifactFailed  ArtifactStatus = "failed"
)

// ClipArtifact is one produced (or attempted) output clip.
//
// Successful artifacts must have a path and no error message. Failed
// artifacts must carry a diagnostic; their path is kept so a partially
// written file can still be found by a purge.
type ClipArtifact struct {
	Segment Segment        `json:"segment"`
	Path    string         `json:"path"`
	Status  ArtifactStatus `json:"status"`
	Error   string         `json:"error,omitempty"`
	Size    int64          `json:"size,omitempty"`
}

// NewArtifactSuccess creates a successful ClipArtifact with validation.
func NewArtifactSuccess(seg Segment, path string, size int64) (ClipArtifact, error) {
	a := ClipArtifact{Segment: seg, Path: path, Status: ArtifactSuccess, Size: size}
	if err := a.Validate(); err != nil {
		return ClipArtifact{}, fmt.Errorf("invalid artifact: %w", err)
	}
	return a, nil
}

// NewArtifactFailure creates a failed ClipArtifact. The error must not be nil.
func NewArtifactFailure(seg Segment, path string, cause error) (ClipArtifact, error) {
	if cause == nil {
		return ClipArtifact{}, fmt.Errorf("invalid artifact: error cannot be nil for failed artifact")
	}
	return ClipArtifact{
		Segment: seg,
		Path:    path,
		Status:  ArtifactFailed,
		Error:   cause.Error(),
	}, nil
}

// Validate checks if the ClipArtifact has consistent state.
func (a ClipArtifact) Validate() error {
	switch a.Status {
	case ArtifactSuccess:
		if strings.TrimSpace(a.Path) == "" {
			return fmt.Errorf("path cannot be empty for successful artifact")
		}
		if a.Error != "" {
			return fmt.Errorf("inconsistent state: success with error %q", a.Error)
		}
	case ArtifactFailed:
		if a.Error == "" {
			return fmt.Errorf("failed artifact must have an error")
		}
	default:
		return fmt.Errorf("unknown status %q", a.Status)
	}
	return a.Segment.Validate()
}

// OK reports whether the clip was produced.
func (a ClipArtifact) OK() bool {
	return a.Status == ArtifactSuccess
}

// Name returns the base file name of the clip.
func (a ClipArtifact) Name() string {
	return filepath.Base(a.Path)
}
