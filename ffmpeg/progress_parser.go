// Package ffmpeg holds helpers for driving the ffmpeg binary: locating it
// and parsing the key=value stream it writes with -progress.
package ffmpeg

import (
	"bufio"
	"clipsplit/internal/timeutil"
	"clipsplit/models"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultBinary is the ffmpeg executable looked up in PATH.
const DefaultBinary = "ffmpeg"

// Locate resolves an ffmpeg (or ffprobe) binary, returning its full path.
func Locate(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", binary, err)
	}
	return path, nil
}

// ProgressParser parses the output of `ffmpeg -progress pipe:1 -nostats`.
//
// ffmpeg writes one key=value pair per line and closes each block with
// progress=continue or progress=end.
type ProgressParser struct{}

// NewProgressParser creates a new parser for ffmpeg progress output
func NewProgressParser() *ProgressParser {
	return &ProgressParser{}
}

// ParseLine applies a single key=value line to progress. It reports whether
// a block has been completed and should be published.
func (pp *ProgressParser) ParseLine(line string, progress *models.ExtractionProgress) bool {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "frame":
		if frame, err := strconv.ParseInt(value, 10, 64); err == nil {
			progress.Frame = frame
		}
	case "fps":
		if fps, err := strconv.ParseFloat(value, 64); err == nil {
			progress.FPS = fps
		}
	case "total_size":
		if size, err := strconv.ParseInt(value, 10, 64); err == nil {
			progress.Size = fmt.Sprintf("%dkB", size/1024)
		}
	case "out_time":
		progress.CurrentTime = value
		progress.CalculateProgress(timeutil.ParseClock(value))
	case "speed":
		if speed, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			progress.Speed = speed
		}
	case "progress":
		if value == "end" {
			progress.CalculateProgress(progress.TotalDuration)
			progress.State = models.ProgressStateCompleted
		} else {
			progress.State = models.ProgressStateExtracting
		}
		return true
	}

	return false
}

// StreamProgress reads ffmpeg progress output until EOF, invoking callback
// at the end of every block. A nil callback just drains the reader. The
// reader is drained to EOF even when parsing fails.
func (pp *ProgressParser) StreamProgress(reader io.Reader, progress *models.ExtractionProgress, callback models.ProgressCallback) error {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		if pp.ParseLine(scanner.Text(), progress) && callback != nil {
			callback(progress)
		}
	}

	if err := scanner.Err(); err != nil {
		// ffmpeg blocks on a full pipe if nobody reads it.
		_, _ = io.Copy(io.Discard, reader)
		return fmt.Errorf("error reading ffmpeg output: %w", err)
	}
	return nil
}
