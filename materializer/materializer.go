// Package materializer turns a split plan into clip files, one backend
// extraction per segment.
package materializer

import (
	"clipsplit/command"
	"clipsplit/models"
	"clipsplit/orchestrator"
	"clipsplit/store"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options configure a Materializer.
type Options struct {
	// Mode selects re-encoding (frame accurate) or stream copy (keyframe
	// aligned starts).
	Mode models.ExtractMode

	// Workers bounds parallel extractions. 0 means one per CPU.
	Workers int

	// OnProgress receives per-segment ffmpeg progress. Optional.
	OnProgress models.ProgressCallback

	// OnClipDone is called once per segment as soon as its artifact is
	// known. Calls are serialized. Optional.
	OnClipDone func(done, total int, artifact models.ClipArtifact)
}

// Materializer extracts every segment of a plan into its own file.
type Materializer struct {
	backend Backend
	opts    Options
	logger  zerolog.Logger
}

// New creates a Materializer. An empty mode means ModeReencode.
func New(backend Backend, opts Options, logger zerolog.Logger) *Materializer {
	if opts.Mode == "" {
		opts.Mode = models.ModeReencode
	}
	return &Materializer{
		backend: backend,
		opts:    opts,
		logger:  logger.With().Str("component", "materializer").Logger(),
	}
}

// Mode returns the configured extraction strategy.
func (m *Materializer) Mode() models.ExtractMode {
	return m.opts.Mode
}

// Materialize extracts each segment of specs from source into outputDir.
//
// The result always has one artifact per segment, in plan order. A failed
// extraction is recorded on its artifact (wrapping ErrSegmentExtraction)
// and the remaining segments still run, so a partial split is a normal
// result. The returned error is reserved for problems that prevent any
// extraction: an invalid request (ErrInvalidArgument) or an output
// directory that cannot be created (ErrStorage).
//
// Clip paths are derived from the boundaries, so materializing the same
// plan again overwrites the same files. The source is only read.
func (m *Materializer) Materialize(ctx context.Context, source models.SourceMedia, specs []models.Segment, outputDir string) ([]models.ClipArtifact, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no segments to materialize", models.ErrInvalidArgument)
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, fmt.Errorf("%w: output directory cannot be empty", models.ErrInvalidArgument)
	}
	for _, seg := range specs {
		if err := seg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: segment %d: %v", models.ErrInvalidArgument, seg.Index, err)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create output directory: %v", models.ErrStorage, err)
	}

	pool := orchestrator.NewPool(m.opts.Workers, m.logger)
	index := make(map[string]int, len(specs))

	for i, seg := range specs {
		req := ExtractRequest{
			Source:   source.Path,
			Segment:  seg,
			Mode:     m.opts.Mode,
			Output:   store.PartialPath(outputDir, seg),
			Progress: m.opts.OnProgress,
		}
		task := &orchestrator.Task{
			ID:      store.ClipName(seg),
			Command: &extractCommand{backend: m.backend, req: req},
		}
		if err := pool.AddTask(task); err != nil {
			return nil, fmt.Errorf("%w: duplicate segment %s", models.ErrInvalidArgument, seg)
		}
		index[task.ID] = i
	}

	m.logger.Info().
		Str("source", source.Path).
		Int("segments", len(specs)).
		Str("mode", string(m.opts.Mode)).
		Int("workers", pool.Workers()).
		Msg("materializing clips")

	artifacts := make([]models.ClipArtifact, len(specs))
	pool.SetProgressCallback(func(completed, total int, task *orchestrator.Task) {
		i := index[task.ID]
		artifact := m.artifactFor(specs[i], task, store.ClipPath(outputDir, specs[i]))
		artifacts[i] = artifact

		if artifact.OK() {
			m.logger.Info().
				Str("clip", artifact.Name()).
				Int("done", completed).
				Int("total", total).
				Dur("took", task.Duration()).
				Msg("clip extracted")
		} else {
			m.logger.Warn().
				Str("clip", artifact.Name()).
				Int("done", completed).
				Int("total", total).
				Str("error", artifact.Error).
				Msg("clip extraction failed")
		}

		if m.opts.OnClipDone != nil {
			m.opts.OnClipDone(completed, total, artifact)
		}
	})

	pool.Execute(ctx)
	return artifacts, nil
}

// artifactFor turns a finished task into an artifact. The backend writes
// to a partial path; only a complete, non-empty file is renamed to the clip
// path, so a clip name never refers to a file still being written. A failed
// extraction's partial output and any stale clip of the same name are
// removed.
func (m *Materializer) artifactFor(seg models.Segment, task *orchestrator.Task, clipPath string) models.ClipArtifact {
	partial := task.Command.GetOutputPath()

	cause := task.Error
	var size int64
	if cause == nil {
		info, err := os.Stat(partial)
		switch {
		case err != nil:
			cause = fmt.Errorf("backend reported success but produced no file: %v", err)
		case info.Size() == 0:
			cause = fmt.Errorf("backend produced an empty file")
		default:
			size = info.Size()
		}
	}

	if cause == nil {
		if err := os.Rename(partial, clipPath); err != nil {
			cause = fmt.Errorf("%w: failed to move clip into place: %v", models.ErrStorage, err)
		}
	}

	if cause == nil {
		artifact, err := models.NewArtifactSuccess(seg, clipPath, size)
		if err == nil {
			return artifact
		}
		cause = err
	}

	for _, path := range []string{partial, clipPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn().Err(err).Str("path", path).Msg("failed to remove partial clip")
		}
	}

	artifact, _ := models.NewArtifactFailure(seg, clipPath,
		fmt.Errorf("%w: segment %s: %v", models.ErrSegmentExtraction, seg, cause))
	return artifact
}

// DryRun returns the command lines that Materialize would run, when the
// backend can describe them.
func (m *Materializer) DryRun(source models.SourceMedia, specs []models.Segment, outputDir string) ([]string, error) {
	liner, ok := m.backend.(CommandLiner)
	if !ok {
		return nil, fmt.Errorf("backend %T cannot describe its commands", m.backend)
	}

	lines := make([]string, 0, len(specs))
	for _, seg := range specs {
		line, err := liner.CommandLine(ExtractRequest{
			Source:  source.Path,
			Segment: seg,
			Mode:    m.opts.Mode,
			Output:  store.ClipPath(outputDir, seg),
		})
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

var _ command.Command = (*extractCommand)(nil)

// extractCommand adapts one backend extraction to command.Command so the
// orchestrator can schedule it.
type extractCommand struct {
	backend Backend
	req     ExtractRequest
}

func (c *extractCommand) BuildArgs() []string {
	return []string{c.req.Source, c.req.Segment.String(), string(c.req.Mode), c.req.Output}
}

func (c *extractCommand) Run(ctx context.Context) error {
	return c.backend.Extract(ctx, c.req)
}

func (c *extractCommand) DryRun() (string, error) {
	if liner, ok := c.backend.(CommandLiner); ok {
		return liner.CommandLine(c.req)
	}
	return "extract " + strings.Join(c.BuildArgs(), " "), nil
}

func (c *extractCommand) GetTaskType() command.TaskType { return command.TaskTypeExtract }
func (c *extractCommand) GetInputPath() string          { return c.req.Source }
func (c *extractCommand) GetOutputPath() string         { return c.req.Output }
