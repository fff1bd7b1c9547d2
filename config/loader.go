// Package config loads clipsplit settings from defaults, a YAML file and
// command-line flags.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Load builds the configuration with priority: CLI flags > config file >
// defaults.
//
// path names the config file explicitly; when empty the standard
// locations are searched and a missing file is not an error. fs may be
// nil when there are no flags to merge.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
	}

	if path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg = fileCfg
	}

	if fs != nil {
		if err := cfg.MergeFromFlags(fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
