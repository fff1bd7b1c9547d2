package config

import (
	"clipsplit/chunker"
	"clipsplit/models"
	"context"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all clipsplit configuration options
type Config struct {
	// Input is the video to split (split and plan commands)
	Input string `yaml:"input"`

	// Directories
	OutputDir string `yaml:"output_dir"` // clips are written here
	UploadDir string `yaml:"upload_dir"` // web uploads are saved here

	// Split settings
	SplitMinutes         int    `yaml:"split_minutes"`          // clip length in minutes
	Workers              int    `yaml:"workers"`                // 0 = one per CPU
	Mode                 string `yaml:"mode"`                   // "reencode" or "copy"
	KeepTrailingFraction bool   `yaml:"keep_trailing_fraction"` // round the source duration up instead of down

	// Encoder settings, used in reencode mode
	Video VideoConfig `yaml:"video"`
	Audio AudioConfig `yaml:"audio"`

	// External tools
	Tools ToolsConfig `yaml:"tools"`

	// Web UI
	Server ServerConfig `yaml:"server"`

	// Behavioral flags
	Verbose bool `yaml:"verbose"` // debug logging, including ffmpeg command lines
	DryRun  bool `yaml:"dry_run"` // print the ffmpeg commands instead of running them
}

// VideoConfig holds video encoding settings
type VideoConfig struct {
	Codec  string `yaml:"codec"`  // e.g., "libx264", "libx265"
	CRF    int    `yaml:"crf"`    // Constant Rate Factor (0-51, lower = better quality)
	Preset string `yaml:"preset"` // e.g., "ultrafast", "medium", "veryslow"
}

// AudioConfig holds audio encoding settings
type AudioConfig struct {
	Codec   string `yaml:"codec"`   // e.g., "aac", "libopus"
	Bitrate string `yaml:"bitrate"` // e.g., "128k", "192k"
}

// ToolsConfig locates the ffmpeg binaries. Empty means look in PATH.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// ServerConfig holds web UI settings
type ServerConfig struct {
	Addr        string `yaml:"addr"`          // listen address, e.g. ":8080"
	MaxUploadMB int64  `yaml:"max_upload_mb"` // largest accepted upload
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "clips",
		UploadDir: "uploads",

		SplitMinutes:         1,
		Workers:              0,
		Mode:                 string(models.ModeReencode),
		KeepTrailingFraction: false,

		// H.264 + AAC: every browser can preview the clips
		Video: VideoConfig{
			Codec:  "libx264",
			CRF:    23,
			Preset: "medium",
		},
		Audio: AudioConfig{
			Codec:   "aac",
			Bitrate: "128k",
		},

		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},

		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 2048,
		},
	}
}

// Copy creates a copy of the config
func (c *Config) Copy() *Config {
	cp := *c
	return &cp
}

// ExtractMode returns the configured extraction mode. Validate must have
// accepted the config.
func (c *Config) ExtractMode() models.ExtractMode {
	return models.ExtractMode(c.Mode)
}

// TrailingPolicy maps keep_trailing_fraction to a planner policy.
func (c *Config) TrailingPolicy() chunker.TrailingPolicy {
	if c.KeepTrailingFraction {
		return chunker.TrailingPreserve
	}
	return chunker.TrailingTruncate
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext returns the config stored by WithConfig, or the defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok && cfg != nil {
		return cfg
	}
	return DefaultConfig()
}
