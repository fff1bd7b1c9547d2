// Package clip builds the ffmpeg command that cuts one segment out of a
// source video.
package clip

import (
	"bytes"
	"clipsplit/command"
	"clipsplit/ffmpeg"
	"clipsplit/internal/timeutil"
	"clipsplit/models"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Defaults for ModeReencode. H.264 + AAC in MP4 plays standalone in every
// browser, which is what the preview page needs.
const (
	DefaultVideoCodec   = "libx264"
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "128k"
	DefaultCRF          = 23
	DefaultPreset       = "medium"
	DefaultPixelFormat  = "yuv420p"
)

// stderrTailLines is how much ffmpeg stderr is kept in error messages.
const stderrTailLines = 6

// ClipBuilder builds and runs the extraction of one segment.
type ClipBuilder struct {
	binary     string
	sourcePath string
	segment    models.Segment
	outputPath string
	mode       models.ExtractMode

	// ModeReencode settings
	videoCodec   string
	crf          int
	preset       string
	pixelFormat  string
	audioCodec   string
	audioBitrate string

	progressCallback models.ProgressCallback
}

// NewClipBuilder creates a builder that re-encodes by default.
func NewClipBuilder(sourcePath string, segment models.Segment, outputPath string) *ClipBuilder {
	return &ClipBuilder{
		binary:       ffmpeg.DefaultBinary,
		sourcePath:   sourcePath,
		segment:      segment,
		outputPath:   outputPath,
		mode:         models.ModeReencode,
		videoCodec:   DefaultVideoCodec,
		crf:          DefaultCRF,
		preset:       DefaultPreset,
		pixelFormat:  DefaultPixelFormat,
		audioCodec:   DefaultAudioCodec,
		audioBitrate: DefaultAudioBitrate,
	}
}

// SetBinary sets the ffmpeg executable
func (c *ClipBuilder) SetBinary(binary string) *ClipBuilder {
	if binary != "" {
		c.binary = binary
	}
	return c
}

// SetMode selects stream copy or re-encoding
func (c *ClipBuilder) SetMode(mode models.ExtractMode) *ClipBuilder {
	c.mode = mode
	return c
}

// SetVideoCodec sets the video encoder used when re-encoding
func (c *ClipBuilder) SetVideoCodec(codec string) *ClipBuilder {
	c.videoCodec = codec
	return c
}

// SetCRF sets the Constant Rate Factor (0-51, lower is better quality)
func (c *ClipBuilder) SetCRF(crf int) *ClipBuilder {
	c.crf = crf
	return c
}

// SetPreset sets the encoder preset (ultrafast ... veryslow)
func (c *ClipBuilder) SetPreset(preset string) *ClipBuilder {
	c.preset = preset
	return c
}

// SetAudioCodec sets the audio encoder used when re-encoding
func (c *ClipBuilder) SetAudioCodec(codec string) *ClipBuilder {
	c.audioCodec = codec
	return c
}

// SetAudioBitrate sets the audio bitrate (e.g. "128k")
func (c *ClipBuilder) SetAudioBitrate(bitrate string) *ClipBuilder {
	c.audioBitrate = bitrate
	return c
}

// SetProgressCallback sets a callback for progress updates
func (c *ClipBuilder) SetProgressCallback(callback models.ProgressCallback) *ClipBuilder {
	c.progressCallback = callback
	return c
}

// BuildArgs constructs the ffmpeg arguments for the extraction.
//
// -ss is placed before -i so ffmpeg seeks the input instead of decoding
// everything up to the start. With re-encoding this is still frame
// accurate; with -c copy the cut snaps to the keyframe at or before start.
func (c *ClipBuilder) BuildArgs() []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y", // re-running a plan overwrites its clips
		"-ss", timeutil.FormatSeconds(c.segment.Start),
		"-i", c.sourcePath,
		"-t", timeutil.FormatSeconds(c.segment.Duration()),
		"-map", "0:v:0?",
		"-map", "0:a:0?",
	}

	if c.mode == models.ModeCopy {
		args = append(args,
			"-c", "copy",
			"-avoid_negative_ts", "make_zero",
		)
	} else {
		args = append(args, "-c:v", c.videoCodec)
		if c.crf >= 0 && c.crf <= 51 {
			args = append(args, "-crf", fmt.Sprintf("%d", c.crf))
		}
		if c.preset != "" {
			args = append(args, "-preset", c.preset)
		}
		if c.pixelFormat != "" {
			args = append(args, "-pix_fmt", c.pixelFormat)
		}
		args = append(args, "-c:a", c.audioCodec)
		if c.audioBitrate != "" {
			args = append(args, "-b:a", c.audioBitrate)
		}
	}

	args = append(args,
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		c.outputPath,
	)

	return args
}

// Run executes the extraction. ffmpeg's stdout carries -progress output,
// stderr is kept for the error message.
func (c *ClipBuilder) Run(ctx context.Context) error {
	if err := c.segment.Validate(); err != nil {
		return fmt.Errorf("invalid segment %s: %w", c.segment, err)
	}

	cmd := exec.CommandContext(ctx, c.binary, c.BuildArgs()...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	progress := models.NewExtractionProgress(c.segment)
	parseErr := ffmpeg.NewProgressParser().StreamProgress(stdout, progress, c.progressCallback)

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffmpeg exited with code %d: %s", exitErr.ExitCode(), tail(stderr.String(), stderrTailLines))
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	return parseErr
}

// DryRun returns the command that would be executed without running it
func (c *ClipBuilder) DryRun() (string, error) {
	if err := c.segment.Validate(); err != nil {
		return "", fmt.Errorf("invalid segment %s: %w", c.segment, err)
	}
	return c.binary + " " + strings.Join(c.BuildArgs(), " "), nil
}

// GetTaskType returns the task type identifier
func (c *ClipBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeExtract
}

// GetInputPath returns the input file path
func (c *ClipBuilder) GetInputPath() string {
	return c.sourcePath
}

// GetOutputPath returns the output file path
func (c *ClipBuilder) GetOutputPath() string {
	return c.outputPath
}

// GetSegment returns the segment this builder extracts
func (c *ClipBuilder) GetSegment() models.Segment {
	return c.segment
}

// tail returns the last n non-empty lines of s joined with "; ".
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append([]string{line}, kept...)
		}
	}
	if len(kept) == 0 {
		return "no output"
	}
	return strings.Join(kept, "; ")
}

var _ command.Command = (*ClipBuilder)(nil)
