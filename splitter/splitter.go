// Package splitter runs a whole split job: probe the source, plan the
// boundaries and materialize one clip per segment.
package splitter

import (
	"clipsplit/chunker"
	"clipsplit/materializer"
	"clipsplit/models"
	"clipsplit/store"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configure a Splitter.
type Options struct {
	// OutputDir receives every clip of a job.
	OutputDir string

	// Trailing decides what happens to a fractional last second.
	Trailing chunker.TrailingPolicy
}

// Splitter turns a source file into a SplitJob.
type Splitter struct {
	backend      materializer.Backend
	materializer *materializer.Materializer
	opts         Options
	logger       zerolog.Logger
}

// New creates a Splitter. The backend is used for probing; extraction goes
// through the materializer.
func New(backend materializer.Backend, m *materializer.Materializer, opts Options, logger zerolog.Logger) (*Splitter, error) {
	if backend == nil || m == nil {
		return nil, fmt.Errorf("splitter needs a backend and a materializer")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("%w: output directory cannot be empty", models.ErrInvalidArgument)
	}
	return &Splitter{
		backend:      backend,
		materializer: m,
		opts:         opts,
		logger:       logger.With().Str("component", "splitter").Logger(),
	}, nil
}

// OutputDir returns where clips are written.
func (s *Splitter) OutputDir() string {
	return s.opts.OutputDir
}

// MinutesToSeconds converts a user supplied split duration. Non-positive
// values are rejected before any file is touched.
func MinutesToSeconds(minutes int) (int, error) {
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: split duration must be at least 1 minute, got %d", models.ErrInvalidArgument, minutes)
	}
	if minutes > chunker.MaxChunkDuration/60 {
		return 0, fmt.Errorf("%w: split duration must be at most %d minutes, got %d", models.ErrInvalidArgument, chunker.MaxChunkDuration/60, minutes)
	}
	return minutes * 60, nil
}

// Probe returns the source's duration, wrapped as a SourceMedia.
func (s *Splitter) Probe(ctx context.Context, sourcePath string) (models.SourceMedia, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return models.SourceMedia{}, fmt.Errorf("%w: source path cannot be empty", models.ErrInvalidArgument)
	}

	duration, err := s.backend.Probe(ctx, sourcePath)
	if err != nil {
		return models.SourceMedia{}, fmt.Errorf("%w: %s: %v", models.ErrProbeFailure, sourcePath, err)
	}

	source, err := models.NewSourceMedia(sourcePath, duration)
	if err != nil {
		return models.SourceMedia{}, fmt.Errorf("%w: %s: %v", models.ErrProbeFailure, sourcePath, err)
	}
	return source, nil
}

// Plan probes the source and computes its boundaries without extracting
// anything.
func (s *Splitter) Plan(ctx context.Context, sourcePath string, segmentSeconds int) (models.SourceMedia, []models.Segment, error) {
	if segmentSeconds <= 0 {
		return models.SourceMedia{}, nil, fmt.Errorf("%w: segment duration must be positive, got %d", models.ErrInvalidArgument, segmentSeconds)
	}

	source, err := s.Probe(ctx, sourcePath)
	if err != nil {
		return models.SourceMedia{}, nil, err
	}

	segments, err := chunker.NewChunker(sourcePath).
		SetChunkDuration(segmentSeconds).
		SetTrailingPolicy(s.opts.Trailing).
		CreateChunks(chunker.Duration(source.Duration))
	if err != nil {
		return source, nil, err
	}
	return source, segments, nil
}

// Split probes, plans and materializes sourcePath in segmentSeconds clips.
//
// Probe and planning errors abort the job before any extraction and are
// returned as is (ErrProbeFailure, ErrInvalidArgument). Per-segment
// failures do not abort; they are recorded on the job's artifacts.
func (s *Splitter) Split(ctx context.Context, sourcePath string, segmentSeconds int) (*models.SplitJob, error) {
	source, segments, err := s.Plan(ctx, sourcePath, segmentSeconds)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, source, segments, segmentSeconds)
}

// Execute materializes an already computed plan into a new job.
func (s *Splitter) Execute(ctx context.Context, source models.SourceMedia, segments []models.Segment, segmentSeconds int) (*models.SplitJob, error) {
	if err := chunker.ValidatePlan(segments, segmentSeconds); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}

	job := &models.SplitJob{
		ID:             uuid.NewString(),
		Source:         source,
		SegmentSeconds: segmentSeconds,
		Mode:           string(s.materializer.Mode()),
		OutputDir:      s.opts.OutputDir,
		CreatedAt:      time.Now(),
	}

	s.logger.Info().
		Str("job", job.ID).
		Str("source", source.Path).
		Float64("duration", source.Duration).
		Int("segment_seconds", segmentSeconds).
		Int("segments", len(segments)).
		Msg("split planned")

	// A new job replaces the previous one wholesale; its clips must not
	// show up next to this job's.
	if err := store.RemoveClips(s.opts.OutputDir); err != nil {
		return nil, err
	}

	artifacts, err := s.materializer.Materialize(ctx, source, segments, s.opts.OutputDir)
	if err != nil {
		return nil, err
	}
	job.Artifacts = artifacts
	job.CompletedAt = time.Now()

	s.logger.Info().
		Str("job", job.ID).
		Int("succeeded", len(job.Succeeded())).
		Int("failed", len(job.Failed())).
		Dur("took", job.CompletedAt.Sub(job.CreatedAt)).
		Msg("split finished")

	return job, nil
}

// DryRun returns the commands Execute would run for the plan.
func (s *Splitter) DryRun(source models.SourceMedia, segments []models.Segment) ([]string, error) {
	return s.materializer.DryRun(source, segments, s.opts.OutputDir)
}

// SplitMinutes is Split with the duration given in whole minutes.
func (s *Splitter) SplitMinutes(ctx context.Context, sourcePath string, minutes int) (*models.SplitJob, error) {
	seconds, err := MinutesToSeconds(minutes)
	if err != nil {
		return nil, err
	}
	return s.Split(ctx, sourcePath, seconds)
}

// Purge empties the output directory and clears the job's artifacts. On
// ErrStorage the job is left as it was. A nil job only purges the
// directory.
func (s *Splitter) Purge(job *models.SplitJob) error {
	dir := s.opts.OutputDir
	if job != nil && job.OutputDir != "" {
		dir = job.OutputDir
	}

	if err := store.Purge(dir); err != nil {
		return err
	}
	if job != nil {
		job.Clear()
	}

	s.logger.Info().Str("dir", dir).Msg("output purged")
	return nil
}

// List returns the job's artifacts, failures included, checked against
// the disk: a clip whose file has gone is reported as failed. A nil job
// lists the clips found in the output directory.
func (s *Splitter) List(job *models.SplitJob) ([]models.ClipArtifact, error) {
	if job == nil {
		return store.List(s.opts.OutputDir)
	}

	artifacts := make([]models.ClipArtifact, 0, len(job.Artifacts))
	for _, a := range job.Artifacts {
		if a.OK() {
			info, err := os.Stat(a.Path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				a.Status = models.ArtifactFailed
				a.Error = "clip file is missing"
				a.Size = 0
			case err != nil:
				return nil, fmt.Errorf("%w: failed to stat %s: %v", models.ErrStorage, a.Name(), err)
			default:
				a.Size = info.Size()
			}
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}
