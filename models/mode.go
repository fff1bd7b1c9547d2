package models

import "fmt"

// ExtractMode selects how a segment is cut out of the source.
type ExtractMode string

const (
	// ModeReencode decodes and re-encodes the range. Boundaries are frame
	// accurate and the clip is always playable, at the cost of speed.
	ModeReencode ExtractMode = "reencode"

	// ModeCopy copies the streams without re-encoding. Near instant, but a
	// clip can only start on a keyframe, so its start snaps back to the
	// nearest preceding keyframe.
	ModeCopy ExtractMode = "copy"
)

// ModeValues returns the valid extraction modes.
func ModeValues() []string {
	return []string{string(ModeReencode), string(ModeCopy)}
}

// ParseExtractMode converts a config value to an ExtractMode.
func ParseExtractMode(s string) (ExtractMode, error) {
	switch ExtractMode(s) {
	case ModeReencode, ModeCopy:
		return ExtractMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown extraction mode %q", ErrInvalidArgument, s)
}
