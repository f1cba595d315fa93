// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Merge   MergeConfig   `toml:"merge"`
	History HistoryConfig `toml:"history"`
}

// MergeConfig maps merge-related settings.
type MergeConfig struct {
	Input    *string `toml:"input"`
	Output   *string `toml:"output"`
	Pattern  *string `toml:"pattern"`
	Workers  *int    `toml:"workers"`
	Name     *string `toml:"name"`
	Creator  *string `toml:"creator"`
	LinkHref *string `toml:"link-href"`
	LinkText *string `toml:"link-text"`
	Force    *bool   `toml:"force"`
}

// HistoryConfig maps run history settings.
type HistoryConfig struct {
	Enabled *bool   `toml:"enabled"`
	DBPath  *string `toml:"db"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DBPath returns the configured history database path or the default one.
func (c FileConfig) DBPath() string {
	if c.History.DBPath != nil && *c.History.DBPath != "" {
		return *c.History.DBPath
	}
	return DefaultDBPath()
}
