package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name          string
		segment       Segment
		wantError     bool
		errorContains string
	}{
		{name: "valid segment", segment: Segment{Start: 0, End: 60}},
		{name: "single second", segment: Segment{Start: 89, End: 90}},
		{name: "start equals end", segment: Segment{Start: 60, End: 60}, wantError: true, errorContains: "start must be less than end"},
		{name: "start after end", segment: Segment{Start: 90, End: 60}, wantError: true, errorContains: "start must be less than end"},
		{name: "negative start", segment: Segment{Start: -1, End: 60}, wantError: true, errorContains: "must not be negative"},
		{name: "zero value", segment: Segment{}, wantError: true, errorContains: "start must be less than end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.segment.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewSegment(t *testing.T) {
	seg, err := NewSegment(2, 60, 90)
	require.NoError(t, err)
	assert.Equal(t, Segment{Index: 2, Start: 60, End: 90}, seg)
	assert.Equal(t, 30, seg.Duration())
	assert.Equal(t, "60-90", seg.String())

	_, err = NewSegment(1, 10, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid segment")
}

func TestNewSourceMedia(t *testing.T) {
	src, err := NewSourceMedia("/videos/in.mp4", 90.5)
	require.NoError(t, err)
	assert.Equal(t, 90.5, src.Duration)

	_, err = NewSourceMedia("", 10)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewSourceMedia("/videos/in.mp4", 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestParseExtractMode(t *testing.T) {
	mode, err := ParseExtractMode("copy")
	require.NoError(t, err)
	assert.Equal(t, ModeCopy, mode)

	mode, err = ParseExtractMode("reencode")
	require.NoError(t, err)
	assert.Equal(t, ModeReencode, mode)

	_, err = ParseExtractMode("gpu")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, []string{"reencode", "copy"}, ModeValues())
}
