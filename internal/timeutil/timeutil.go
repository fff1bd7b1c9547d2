// Package timeutil converts between the units the splitter works in: whole
// seconds for boundaries, minutes for user input and ffmpeg timestamps.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSeconds converts whole seconds to the HH:MM:SS form ffmpeg accepts
// for -ss and -to.
//
//	FormatSeconds(0)    // "00:00:00"
//	FormatSeconds(90)   // "00:01:30"
//	FormatSeconds(3661) // "01:01:01"
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// ParseClock converts an ffmpeg clock ("HH:MM:SS.micro") to seconds.
// Returns 0 for anything that is not a three-part clock.
func ParseClock(clock string) float64 {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 3 {
		return 0
	}

	hours, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return hours*3600 + minutes*60 + seconds
}

// HumanDuration renders seconds as a short label such as "1m30s" or "2h0m5s".
func HumanDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	seconds %= 60
	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh%dm%ds", minutes/60, minutes%60, seconds)
}
