package config

import (
	"clipsplit/models"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and MergeFromFlags.
const (
	FlagOutputDir    = "output-dir"
	FlagUploadDir    = "upload-dir"
	FlagMinutes      = "minutes"
	FlagWorkers      = "workers"
	FlagMode         = "mode"
	FlagCopy         = "copy"
	FlagKeepTrailing = "keep-trailing"
	FlagVideoCodec   = "video-codec"
	FlagVideoCRF     = "video-crf"
	FlagVideoPreset  = "video-preset"
	FlagAudioCodec   = "audio-codec"
	FlagAudioBitrate = "audio-bitrate"
	FlagFFmpeg       = "ffmpeg"
	FlagFFprobe      = "ffprobe"
	FlagAddr         = "addr"
	FlagMaxUploadMB  = "max-upload-mb"
	FlagVerbose      = "verbose"
	FlagDryRun       = "dry-run"
)

// RegisterFlags defines every config override on fs. Defaults shown in
// help come from DefaultConfig; only flags the user actually sets are
// merged.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.StringP(FlagOutputDir, "o", d.OutputDir, "Directory clips are written to")
	fs.String(FlagUploadDir, d.UploadDir, "Directory web uploads are saved to")

	fs.IntP(FlagMinutes, "m", d.SplitMinutes, "Clip length in minutes")
	fs.IntP(FlagWorkers, "w", d.Workers, "Parallel extractions (0 = auto-detect)")
	fs.String(FlagMode, d.Mode, "Extraction mode: "+strings.Join(models.ModeValues(), ", "))
	fs.Bool(FlagCopy, false, "Shortcut for --mode copy (fast, keyframe-aligned cuts)")
	fs.Bool(FlagKeepTrailing, d.KeepTrailingFraction, "Keep the fractional last second instead of dropping it")

	fs.String(FlagVideoCodec, d.Video.Codec, "Video codec in reencode mode")
	fs.Int(FlagVideoCRF, d.Video.CRF, "Video CRF (0-51, lower = better quality)")
	fs.String(FlagVideoPreset, d.Video.Preset, "Video preset: ultrafast ... veryslow")
	fs.String(FlagAudioCodec, d.Audio.Codec, "Audio codec in reencode mode")
	fs.String(FlagAudioBitrate, d.Audio.Bitrate, "Audio bitrate, e.g., 128k")

	fs.String(FlagFFmpeg, d.Tools.FFmpeg, "ffmpeg binary")
	fs.String(FlagFFprobe, d.Tools.FFprobe, "ffprobe binary")

	fs.String(FlagAddr, d.Server.Addr, "Web UI listen address")
	fs.Int64(FlagMaxUploadMB, d.Server.MaxUploadMB, "Largest accepted upload in MB")

	fs.Bool(FlagDryRun, false, "Print the ffmpeg commands without running them")
}

// MergeFromFlags overrides config values with the flags that were set on
// the command line. Flags that were not registered on fs are skipped.
func (c *Config) MergeFromFlags(fs *pflag.FlagSet) error {
	var err error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return err == nil && f != nil && f.Changed
	}

	if changed(FlagOutputDir) {
		c.OutputDir, err = fs.GetString(FlagOutputDir)
	}
	if changed(FlagUploadDir) {
		c.UploadDir, err = fs.GetString(FlagUploadDir)
	}

	if changed(FlagMinutes) {
		c.SplitMinutes, err = fs.GetInt(FlagMinutes)
	}
	if changed(FlagWorkers) {
		c.Workers, err = fs.GetInt(FlagWorkers)
	}
	if changed(FlagMode) {
		c.Mode, err = fs.GetString(FlagMode)
	}
	if changed(FlagCopy) {
		var copyMode bool
		if copyMode, err = fs.GetBool(FlagCopy); copyMode {
			c.Mode = string(models.ModeCopy)
		}
	}
	if changed(FlagKeepTrailing) {
		c.KeepTrailingFraction, err = fs.GetBool(FlagKeepTrailing)
	}

	if changed(FlagVideoCodec) {
		c.Video.Codec, err = fs.GetString(FlagVideoCodec)
	}
	if changed(FlagVideoCRF) {
		c.Video.CRF, err = fs.GetInt(FlagVideoCRF)
	}
	if changed(FlagVideoPreset) {
		c.Video.Preset, err = fs.GetString(FlagVideoPreset)
	}
	if changed(FlagAudioCodec) {
		c.Audio.Codec, err = fs.GetString(FlagAudioCodec)
	}
	if changed(FlagAudioBitrate) {
		c.Audio.Bitrate, err = fs.GetString(FlagAudioBitrate)
	}

	if changed(FlagFFmpeg) {
		c.Tools.FFmpeg, err = fs.GetString(FlagFFmpeg)
	}
	if changed(FlagFFprobe) {
		c.Tools.FFprobe, err = fs.GetString(FlagFFprobe)
	}

	if changed(FlagAddr) {
		c.Server.Addr, err = fs.GetString(FlagAddr)
	}
	if changed(FlagMaxUploadMB) {
		c.Server.MaxUploadMB, err = fs.GetInt64(FlagMaxUploadMB)
	}

	// --verbose only ever turns debug output on
	if changed(FlagVerbose) {
		var verbose bool
		if verbose, err = fs.GetBool(FlagVerbose); verbose {
			c.Verbose = true
		}
	}
	if changed(FlagDryRun) {
		c.DryRun, err = fs.GetBool(FlagDryRun)
	}

	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}
	return nil
}

// PrintConfig writes the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	if c.Input != "" {
		fmt.Fprintf(w, "Input:          %s\n", c.Input)
	}
	fmt.Fprintf(w, "Output Dir:     %s\n", c.OutputDir)
	fmt.Fprintf(w, "Upload Dir:     %s\n", c.UploadDir)
	fmt.Fprintf(w, "Split:          %d minute(s)\n", c.SplitMinutes)
	fmt.Fprintf(w, "Mode:           %s\n", c.Mode)
	if c.Workers == 0 {
		fmt.Fprintf(w, "Workers:        auto\n")
	} else {
		fmt.Fprintf(w, "Workers:        %d\n", c.Workers)
	}
	fmt.Fprintf(w, "Trailing:       %s\n", c.TrailingPolicy())

	if c.ExtractMode() == models.ModeReencode {
		fmt.Fprintln(w, "\nVideo Settings:")
		fmt.Fprintf(w, "  Codec:        %s\n", c.Video.Codec)
		fmt.Fprintf(w, "  CRF:          %d\n", c.Video.CRF)
		fmt.Fprintf(w, "  Preset:       %s\n", c.Video.Preset)

		fmt.Fprintln(w, "\nAudio Settings:")
		fmt.Fprintf(w, "  Codec:        %s\n", c.Audio.Codec)
		if c.Audio.Bitrate != "" {
			fmt.Fprintf(w, "  Bitrate:      %s\n", c.Audio.Bitrate)
		}
	}

	fmt.Fprintln(w, "\nTools:")
	fmt.Fprintf(w, "  ffmpeg:       %s\n", c.Tools.FFmpeg)
	fmt.Fprintf(w, "  ffprobe:      %s\n", c.Tools.FFprobe)

	fmt.Fprintln(w, "\nServer:")
	fmt.Fprintf(w, "  Addr:         %s\n", c.Server.Addr)
	fmt.Fprintf(w, "  Max Upload:   %d MB\n", c.Server.MaxUploadMB)

	fmt.Fprintln(w, "\nBehavioral Flags:")
	fmt.Fprintf(w, "  Verbose:      %v\n", c.Verbose)
	fmt.Fprintf(w, "  Dry Run:      %v\n", c.DryRun)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}
