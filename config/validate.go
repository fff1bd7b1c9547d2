package config

import (
	"clipsplit/chunker"
	"clipsplit/models"
	"fmt"
	"os"
	"strings"
)

// Validate checks if the configuration is valid. All problems are
// reported together.
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.OutputDir) == "" {
		errors = append(errors, "output directory is required")
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		errors = append(errors, "upload directory is required")
	}

	if _, err := models.ParseExtractMode(c.Mode); err != nil {
		errors = append(errors, fmt.Sprintf("invalid mode '%s', must be one of: %s",
			c.Mode, strings.Join(models.ModeValues(), ", ")))
	}

	if c.SplitMinutes <= 0 {
		errors = append(errors, "split minutes must be positive")
	} else if c.SplitMinutes*60 > chunker.MaxChunkDuration {
		errors = append(errors, fmt.Sprintf("split minutes cannot exceed %d", chunker.MaxChunkDuration/60))
	}

	// 0 is valid, means auto-detect
	if c.Workers < 0 {
		errors = append(errors, "workers cannot be negative (use 0 for auto-detect)")
	}

	if err := c.Video.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("video config: %v", err))
	}
	if err := c.Audio.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("audio config: %v", err))
	}
	if err := c.Server.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("server config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// ValidateInput checks that an input file was given and exists.
func (c *Config) ValidateInput() error {
	if c.Input == "" {
		return fmt.Errorf("input file is required")
	}
	info, err := os.Stat(c.Input)
	if os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", c.Input)
	}
	if err != nil {
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input is a directory: %s", c.Input)
	}
	return nil
}

// Validate checks if video configuration is valid
func (vc *VideoConfig) Validate() error {
	var errors []string

	if vc.Codec == "" {
		errors = append(errors, "codec is required")
	}
	if vc.CRF < 0 || vc.CRF > 51 {
		errors = append(errors, "CRF must be between 0 and 51")
	}
	if vc.Preset == "" {
		errors = append(errors, "preset is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// Validate checks if audio configuration is valid
func (ac *AudioConfig) Validate() error {
	var errors []string

	if ac.Codec == "" {
		errors = append(errors, "codec is required")
	}
	if ac.Bitrate != "" && !isValidBitrate(ac.Bitrate) {
		errors = append(errors, fmt.Sprintf("bitrate '%s' must look like 128k", ac.Bitrate))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// Validate checks if server configuration is valid
func (sc *ServerConfig) Validate() error {
	var errors []string

	if sc.Addr == "" {
		errors = append(errors, "addr is required")
	}
	if sc.MaxUploadMB <= 0 {
		errors = append(errors, "max upload size must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// isValidBitrate accepts ffmpeg bitrates such as "128k", "1M" or "96000".
func isValidBitrate(bitrate string) bool {
	var value int
	var unit string
	n, _ := fmt.Sscanf(bitrate, "%d%s", &value, &unit)
	if n == 0 || value <= 0 {
		return false
	}
	switch strings.ToLower(unit) {
	case "", "k", "m":
		return true
	}
	return false
}
