package chunker

// MediaInfo is the minimal media metadata the planner needs.
//
// It decouples the chunker from a specific probing implementation, so
// ffprobe.ProbeResult and test doubles both satisfy it.
type MediaInfo interface {
	// GetDuration returns the media duration in seconds.
	GetDuration() (float64, error)
}

// Duration is a MediaInfo for callers that already know the duration.
type Duration float64

// GetDuration implements MediaInfo.
func (d Duration) GetDuration() (float64, error) {
	return float64(d), nil
}
