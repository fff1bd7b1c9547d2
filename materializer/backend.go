package materializer

import (
	"clipsplit/command/clip"
	"clipsplit/ffprobe"
	"clipsplit/models"
	"context"
)

// ExtractRequest asks a backend to cut [Start, End) seconds of Source into
// Output.
type ExtractRequest struct {
	Source   string
	Segment  models.Segment
	Mode     models.ExtractMode
	Output   string
	Progress models.ProgressCallback
}

// Backend is the media tool boundary: probing a duration and extracting
// one time range. Implementations must be safe for concurrent Extract
// calls that write to different outputs.
type Backend interface {
	Probe(ctx context.Context, path string) (float64, error)
	Extract(ctx context.Context, req ExtractRequest) error
}

// CommandLiner is implemented by backends that can show the command they
// would run for a request.
type CommandLiner interface {
	CommandLine(req ExtractRequest) (string, error)
}

// EncodeSettings are the ModeReencode encoder options.
type EncodeSettings struct {
	VideoCodec   string
	CRF          int
	Preset       string
	AudioCodec   string
	AudioBitrate string
}

// DefaultEncodeSettings matches the clip builder defaults (H.264 + AAC).
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{
		VideoCodec:   clip.DefaultVideoCodec,
		CRF:          clip.DefaultCRF,
		Preset:       clip.DefaultPreset,
		AudioCodec:   clip.DefaultAudioCodec,
		AudioBitrate: clip.DefaultAudioBitrate,
	}
}

// FFmpegBackend probes with ffprobe and extracts with ffmpeg, one process
// per call.
type FFmpegBackend struct {
	FFmpeg   string
	Prober   *ffprobe.Prober
	Encoding EncodeSettings
}

var (
	_ Backend      = (*FFmpegBackend)(nil)
	_ CommandLiner = (*FFmpegBackend)(nil)
)

// NewFFmpegBackend creates a backend. Empty binaries fall back to the
// ones in PATH.
func NewFFmpegBackend(ffmpegBinary, ffprobeBinary string, encoding EncodeSettings) *FFmpegBackend {
	return &FFmpegBackend{
		FFmpeg:   ffmpegBinary,
		Prober:   ffprobe.NewProber(ffprobeBinary),
		Encoding: encoding,
	}
}

// Probe implements Backend.
func (b *FFmpegBackend) Probe(ctx context.Context, path string) (float64, error) {
	return b.Prober.Duration(ctx, path)
}

// Extract implements Backend.
func (b *FFmpegBackend) Extract(ctx context.Context, req ExtractRequest) error {
	return b.builder(req).Run(ctx)
}

// CommandLine implements CommandLiner.
func (b *FFmpegBackend) CommandLine(req ExtractRequest) (string, error) {
	return b.builder(req).DryRun()
}

func (b *FFmpegBackend) builder(req ExtractRequest) *clip.ClipBuilder {
	return clip.NewClipBuilder(req.Source, req.Segment, req.Output).
		SetBinary(b.FFmpeg).
		SetMode(req.Mode).
		SetVideoCodec(b.Encoding.VideoCodec).
		SetCRF(b.Encoding.CRF).
		SetPreset(b.Encoding.Preset).
		SetAudioCodec(b.Encoding.AudioCodec).
		SetAudioBitrate(b.Encoding.AudioBitrate).
		SetProgressCallback(req.Progress)
}
