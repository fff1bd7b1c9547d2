package models

import (
	"fmt"
	"time"
)

// ExtractionProgress represents real-time metrics of one segment extraction,
// parsed from ffmpeg's -progress output.
type ExtractionProgress struct {
	Segment Segment

	Frame       int64   // Current frame number
	FPS         float64 // Frames per second being processed
	CurrentTime string  // Position inside the output (HH:MM:SS.MS)
	Speed       float64 // e.g. 2.34 means 2.34x realtime
	Size        string  // Current output size (e.g. "1024kB")

	// Progress calculation
	TotalDuration float64 // Segment length in seconds
	Progress      float64 // Percentage complete (0-100)

	State     ProgressState
	StartTime time.Time
	UpdatedAt time.Time
}

// ProgressState represents the current state of an extraction.
type ProgressState string

const (
	ProgressStateQueued     ProgressState = "queued"
	ProgressStateExtracting ProgressState = "extracting"
	ProgressStateCompleted  ProgressState = "completed"
	ProgressStateFailed     ProgressState = "failed"
)

// ProgressCallback receives progress updates during an extraction.
type ProgressCallback func(progress *ExtractionProgress)

// NewExtractionProgress creates a progress tracker for one segment.
func NewExtractionProgress(seg Segment) *ExtractionProgress {
	now := time.Now()
	return &ExtractionProgress{
		Segment:       seg,
		TotalDuration: float64(seg.Duration()),
		State:         ProgressStateQueued,
		StartTime:     now,
		UpdatedAt:     now,
	}
}

// CalculateProgress updates the percentage from the current output position.
func (ep *ExtractionProgress) CalculateProgress(currentSeconds float64) {
	if ep.TotalDuration > 0 {
		ep.Progress = (currentSeconds / ep.TotalDuration) * 100
		if ep.Progress > 100 {
			ep.Progress = 100
		}
	}
	ep.UpdatedAt = time.Now()
}

// FormatSummary returns a one-line summary for logs.
func (ep *ExtractionProgress) FormatSummary() string {
	return fmt.Sprintf("clip %s: %.1f%% | speed %.2fx | size %s",
		ep.Segment, ep.Progress, ep.Speed, ep.Size)
}
