// Package chunker computes split plans: the ordered (start, end) boundaries
// of fixed-length clips covering a source.
package chunker

import (
	"clipsplit/models"
	"fmt"
	"math"
)

const (
	// DefaultChunkDuration is the default clip length in seconds
	DefaultChunkDuration = 60

	// MinChunkDuration is the minimum allowed clip length in seconds
	MinChunkDuration = 1

	// MaxChunkDuration is the maximum allowed clip length in seconds (24 hours)
	MaxChunkDuration = 86400

	// MaxTotalDuration bounds the source duration a plan accepts, in seconds
	MaxTotalDuration = math.MaxInt32

	// MaxSegments bounds the number of clips in one plan
	MaxSegments = 100000
)

// TrailingPolicy decides what happens to the fractional last second of a
// source whose duration is not a whole number of seconds.
type TrailingPolicy int

const (
	// TrailingTruncate drops the fractional tail: the plan covers
	// [0, floor(duration)). Matches ffmpeg's whole-second seeking.
	TrailingTruncate TrailingPolicy = iota

	// TrailingPreserve rounds the duration up so the last clip runs to the
	// end of the stream: the plan covers [0, ceil(duration)).
	TrailingPreserve
)

// String returns the config name of the policy.
func (p TrailingPolicy) String() string {
	if p == TrailingPreserve {
		return "preserve"
	}
	return "truncate"
}

// Plan splits totalDuration into consecutive segments of segmentSeconds,
// truncating the fractional tail of the source.
//
//	Plan(90, 60)  // [0-60 60-90]
//	Plan(59, 60)  // [0-59]
//	Plan(120, 60) // [0-60 60-120]
func Plan(totalDuration float64, segmentSeconds int) ([]models.Segment, error) {
	return PlanWithPolicy(totalDuration, segmentSeconds, TrailingTruncate)
}

// PlanWithPolicy is Plan with an explicit trailing policy.
//
// Fails with models.ErrInvalidArgument when either duration is not
// positive, when the adjusted total is zero seconds, or when the plan would
// exceed MaxTotalDuration or MaxSegments.
func PlanWithPolicy(totalDuration float64, segmentSeconds int, policy TrailingPolicy) ([]models.Segment, error) {
	if math.IsNaN(totalDuration) || math.IsInf(totalDuration, 0) || totalDuration <= 0 {
		return nil, fmt.Errorf("%w: total duration must be positive, got %v", models.ErrInvalidArgument, totalDuration)
	}
	if totalDuration > MaxTotalDuration {
		return nil, fmt.Errorf("%w: total duration %v exceeds %d seconds", models.ErrInvalidArgument, totalDuration, MaxTotalDuration)
	}
	if segmentSeconds <= 0 {
		return nil, fmt.Errorf("%w: segment duration must be positive, got %d", models.ErrInvalidArgument, segmentSeconds)
	}

	var limit int
	switch policy {
	case TrailingPreserve:
		limit = int(math.Ceil(totalDuration))
	default:
		limit = int(math.Floor(totalDuration))
	}
	if limit == 0 {
		return nil, fmt.Errorf("%w: source is shorter than one second (%.3fs)", models.ErrInvalidArgument, totalDuration)
	}

	count := limit/segmentSeconds + 1
	if limit%segmentSeconds == 0 {
		count--
	}
	if count > MaxSegments {
		return nil, fmt.Errorf("%w: plan would have %d segments, at most %d allowed", models.ErrInvalidArgument, count, MaxSegments)
	}
	segments := make([]models.Segment, 0, count)

	for start := 0; start < limit; start += segmentSeconds {
		end := start + segmentSeconds
		if end > limit {
			end = limit
		}
		segments = append(segments, models.Segment{
			Index: len(segments) + 1,
			Start: start,
			End:   end,
		})
	}

	return segments, nil
}

// Chunker builds split plans for one source file.
type Chunker struct {
	sourcePath    string
	chunkDuration int
	policy        TrailingPolicy
}

// NewChunker creates a new Chunker with default settings
func NewChunker(sourcePath string) *Chunker {
	return &Chunker{
		sourcePath:    sourcePath,
		chunkDuration: DefaultChunkDuration,
		policy:        TrailingTruncate,
	}
}

// SetChunkDuration sets the clip length in seconds
func (c *Chunker) SetChunkDuration(seconds int) *Chunker {
	c.chunkDuration = seconds
	return c
}

// SetTrailingPolicy sets how the fractional tail of the source is handled
func (c *Chunker) SetTrailingPolicy(policy TrailingPolicy) *Chunker {
	c.policy = policy
	return c
}

// CreateChunks plans the clips for the probed media.
//
// Example:
//
//	probeResult, _ := ffprobe.Probe(ctx, "/path/to/video.mp4")
//	segments, err := chunker.NewChunker("/path/to/video.mp4").
//		SetChunkDuration(300).
//		CreateChunks(probeResult)
func (c *Chunker) CreateChunks(mediaInfo MediaInfo) ([]models.Segment, error) {
	if c.sourcePath == "" {
		return nil, fmt.Errorf("%w: source path cannot be empty", models.ErrInvalidArgument)
	}

	if c.chunkDuration < MinChunkDuration {
		return nil, fmt.Errorf("%w: chunk duration must be at least %d seconds", models.ErrInvalidArgument, MinChunkDuration)
	}

	if c.chunkDuration > MaxChunkDuration {
		return nil, fmt.Errorf("%w: chunk duration cannot exceed %d seconds", models.ErrInvalidArgument, MaxChunkDuration)
	}

	if mediaInfo == nil {
		return nil, fmt.Errorf("%w: media info cannot be nil", models.ErrInvalidArgument)
	}

	duration, err := mediaInfo.GetDuration()
	if err != nil {
		return nil, fmt.Errorf("failed to get duration: %w", err)
	}

	return PlanWithPolicy(duration, c.chunkDuration, c.policy)
}

// ValidatePlan checks a plan for completeness and correctness: sequential
// indices, contiguous boundaries starting at 0, and no segment longer than
// segmentSeconds.
func ValidatePlan(segments []models.Segment, segmentSeconds int) error {
	if len(segments) == 0 {
		return fmt.Errorf("plan is empty")
	}

	if segments[0].Start != 0 {
		return fmt.Errorf("plan must start at 0, starts at %d", segments[0].Start)
	}

	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d is invalid: %w", i+1, err)
		}

		if seg.Index != i+1 {
			return fmt.Errorf("segment %d has incorrect index: got %d", i+1, seg.Index)
		}

		if seg.Duration() > segmentSeconds {
			return fmt.Errorf("segment %d is %ds long, longer than %ds", i+1, seg.Duration(), segmentSeconds)
		}

		if i > 0 && seg.Start != segments[i-1].End {
			return fmt.Errorf("segments %d and %d are not contiguous: %d != %d",
				i, i+1, segments[i-1].End, seg.Start)
		}
	}

	return nil
}
