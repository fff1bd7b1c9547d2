package models

import "errors"

// Error taxonomy shared by every stage of a split. Stages wrap these with
// context, so callers match with errors.Is.
var (
	// ErrInvalidArgument rejects bad durations before any I/O happens.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProbeFailure means the source duration could not be determined.
	// It is fatal to the whole job.
	ErrProbeFailure = errors.New("probe failed")

	// ErrSegmentExtraction marks a single failed segment. It is recorded on
	// the artifact and never aborts the job.
	ErrSegmentExtraction = errors.New("segment extraction failed")

	// ErrStorage means the output directory could not be read or reset.
	ErrStorage = errors.New("storage failure")
)
