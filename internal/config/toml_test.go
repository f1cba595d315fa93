package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Merge.Input != nil || cfg.History.Enabled != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[merge]
input = "/data/gpx"
workers = 3
force = true
link-text = "Home"

[history]
enabled = false
db = "/data/history.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Merge.Input == nil || *cfg.Merge.Input != "/data/gpx" {
		t.Fatalf("unexpected input %v", cfg.Merge.Input)
	}
	if cfg.Merge.Workers == nil || *cfg.Merge.Workers != 3 {
		t.Fatalf("unexpected workers %v", cfg.Merge.Workers)
	}
	if cfg.Merge.Force == nil || !*cfg.Merge.Force {
		t.Fatalf("expected force to be set")
	}
	if cfg.Merge.LinkText == nil || *cfg.Merge.LinkText != "Home" {
		t.Fatalf("unexpected link text %v", cfg.Merge.LinkText)
	}
	if cfg.Merge.Output != nil {
		t.Fatalf("expected output to be unset")
	}
	if cfg.History.Enabled == nil || *cfg.History.Enabled {
		t.Fatalf("expected history to be disabled")
	}
	if cfg.DBPath() != "/data/history.db" {
		t.Fatalf("unexpected db path %q", cfg.DBPath())
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[merge]\ninputs = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "merge.inputs") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	if got := DefaultConfigPath(); got != filepath.Join(dir, "config", "gpxmerge", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := (FileConfig{}).DBPath(); got != filepath.Join(dir, "data", "gpxmerge", "history.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
