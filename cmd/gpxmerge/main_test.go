package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/gpxmerge/internal/config"
	"github.com/verte-zerg/gpxmerge/internal/model"
	"github.com/verte-zerg/gpxmerge/internal/window"
)

func TestBuildWindow(t *testing.T) {
	w, err := buildWindow(model.MergeConfig{FilterDate: "2024-08-20", StartTime: "06:00", EndTime: "20:00"})
	if err != nil {
		t.Fatalf("build window: %v", err)
	}
	if got := w.String(); got != "on 2024-08-20 between 06:00 and 20:00" {
		t.Fatalf("unexpected window %q", got)
	}

	if _, err := buildWindow(model.MergeConfig{StartTime: "06:00"}); !errors.Is(err, window.ErrConfig) {
		t.Fatalf("expected ErrConfig for start without end, got %v", err)
	}
	if _, err := buildWindow(model.MergeConfig{StartTime: "six", EndTime: "07:00"}); err == nil || !strings.Contains(err.Error(), "--start-time") {
		t.Fatalf("expected start time error, got %v", err)
	}
	if _, err := buildWindow(model.MergeConfig{FilterDate: "20/08/2024"}); err == nil || !strings.Contains(err.Error(), "--filter-date") {
		t.Fatalf("expected filter date error, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "out.gpx")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	cases := []struct {
		name    string
		cfg     model.MergeConfig
		wantErr string
	}{
		{name: "ok", cfg: model.MergeConfig{InputDir: dir, OutputPath: filepath.Join(dir, "new.gpx")}},
		{name: "missing input", cfg: model.MergeConfig{InputDir: filepath.Join(dir, "nope"), OutputPath: "x.gpx"}, wantErr: "does not exist"},
		{name: "input is file", cfg: model.MergeConfig{InputDir: existing, OutputPath: "x.gpx"}, wantErr: "not a directory"},
		{name: "output exists", cfg: model.MergeConfig{InputDir: dir, OutputPath: existing}, wantErr: "--force"},
		{name: "force overwrite", cfg: model.MergeConfig{InputDir: dir, OutputPath: existing, Force: true}},
		{name: "negative workers", cfg: model.MergeConfig{InputDir: dir, OutputPath: "x.gpx", Workers: -1}, wantErr: "--workers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateConfig(tc.cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigTemplateIsValidTOML(t *testing.T) {
	var cfg config.FileConfig
	meta, err := toml.Decode(defaultConfigTemplate(), &cfg)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if len(meta.Undecoded()) != 0 {
		t.Fatalf("unexpected keys %v", meta.Undecoded())
	}
}
