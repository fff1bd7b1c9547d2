package models

import "time"

// SplitJob groups one user-triggered split: the probed source, the
// requested segment length and the resulting artifacts in plan order.
//
// A SplitJob is a plain value held by the caller. Starting a new split
// replaces it; purging clears its artifacts.
type SplitJob struct {
	ID             string         `json:"id"`
	Source         SourceMedia    `json:"source"`
	SegmentSeconds int            `json:"segment_seconds"`
	Mode           string         `json:"mode"`
	OutputDir      string         `json:"output_dir"`
	Artifacts      []ClipArtifact `json:"artifacts"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    time.Time      `json:"completed_at,omitempty"`
}

// Succeeded returns the artifacts that were produced.
func (j *SplitJob) Succeeded() []ClipArtifact {
	return j.filter(ArtifactSuccess)
}

// Failed returns the artifacts whose extraction failed.
func (j *SplitJob) Failed() []ClipArtifact {
	return j.filter(ArtifactFailed)
}

// PartialSuccess reports whether some, but not all, segments were produced.
func (j *SplitJob) PartialSuccess() bool {
	ok := len(j.Succeeded())
	return ok > 0 && ok < len(j.Artifacts)
}

// Clear drops the job's artifacts after a purge.
func (j *SplitJob) Clear() {
	j.Artifacts = nil
}

func (j *SplitJob) filter(status ArtifactStatus) []ClipArtifact {
	var out []ClipArtifact
	for _, a := range j.Artifacts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}
