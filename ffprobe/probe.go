// Package ffprobe extracts metadata from media files using the ffprobe
// command-line tool.
package ffprobe

import (
	"bytes"
	"clipsplit/models"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultBinary is the ffprobe executable looked up in PATH.
const DefaultBinary = "ffprobe"

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	CodecLongName string `json:"codec_long_name"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Duration      string `json:"duration,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename       string `json:"filename"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// ProbeResult holds the metadata ffprobe reports for a file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// GetDuration returns the duration of the media file in seconds.
//
// The container duration is preferred; when it is missing (some raw
// streams) the longest stream duration is used instead.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration != "" && pr.Format.Duration != "N/A" {
		duration, err := strconv.ParseFloat(pr.Format.Duration, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
		}
		return duration, nil
	}

	longest := 0.0
	for _, s := range pr.Streams {
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > longest {
			longest = d
		}
	}
	if longest == 0 {
		return 0, fmt.Errorf("duration not available in format metadata")
	}
	return longest, nil
}

// GetVideoStreams returns all video streams from the media file.
func (pr *ProbeResult) GetVideoStreams() []Stream {
	return pr.streamsOfType("video")
}

// GetAudioStreams returns all audio streams from the media file.
func (pr *ProbeResult) GetAudioStreams() []Stream {
	return pr.streamsOfType("audio")
}

func (pr *ProbeResult) streamsOfType(codecType string) []Stream {
	var streams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == codecType {
			streams = append(streams, stream)
		}
	}
	return streams
}

// ParseOutput decodes ffprobe's JSON output.
func ParseOutput(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

// Prober runs a specific ffprobe binary.
type Prober struct {
	Binary string
}

// NewProber creates a Prober. An empty binary means DefaultBinary.
func NewProber(binary string) *Prober {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Prober{Binary: binary}
}

// Probe analyzes a media file and returns its metadata.
//
// Every failure wraps models.ErrProbeFailure: a missing file, an ffprobe
// crash, unparsable output or a file without streams all make the source
// unusable for splitting.
//
// Example:
//
//	result, err := ffprobe.NewProber("").Probe(ctx, "/path/to/video.mp4")
//	if err != nil {
//	    return err
//	}
//	duration, _ := result.GetDuration()
func (p *Prober) Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, fmt.Errorf("%w: source path cannot be empty", models.ErrProbeFailure)
	}

	// -v error: only real errors on stderr
	// -print_format json: machine readable output on stdout
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		sourcePath,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffprobe failed: %v (output: %s)",
			models.ErrProbeFailure, err, strings.TrimSpace(stderr.String()))
	}

	result, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrProbeFailure, err)
	}

	if len(result.Streams) == 0 {
		return nil, fmt.Errorf("%w: no streams found in %s", models.ErrProbeFailure, sourcePath)
	}

	return result, nil
}

// Duration probes a file and returns only its duration in seconds.
func (p *Prober) Duration(ctx context.Context, sourcePath string) (float64, error) {
	result, err := p.Probe(ctx, sourcePath)
	if err != nil {
		return 0, err
	}

	duration, err := result.GetDuration()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrProbeFailure, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: invalid duration %.3f seconds", models.ErrProbeFailure, duration)
	}
	return duration, nil
}

// Probe analyzes a media file with the ffprobe found in PATH.
func Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	return NewProber("").Probe(ctx, sourcePath)
}
