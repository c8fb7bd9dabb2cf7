package annotation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("empty filename gives defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.History.Capacity != 50 {
			t.Errorf("History.Capacity = %d, want 50", cfg.History.Capacity)
		}
		if cfg.Autosave.Interval != 30*time.Second {
			t.Errorf("Autosave.Interval = %v, want 30s", cfg.Autosave.Interval)
		}
		if cfg.Thresholds.Edit != 30 || cfg.Thresholds.Hover != 20 {
			t.Errorf("Thresholds = %+v, want edit 30 and hover 20", cfg.Thresholds)
		}
		if cfg.BBoxPadding() != 10 {
			t.Errorf("BBoxPadding() = %v, want 10", cfg.BBoxPadding())
		}
		if len(cfg.Skeleton().Names) != 19 || len(cfg.Skeleton().Pairs) != 17 {
			t.Errorf("Skeleton() = %+v, want 19 names and 17 pairs", cfg.Skeleton())
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "config.yaml")
		content := `
language: pt-BR
keypoints:
  names: [head, neck, tail]
  skeleton: [[0, 1], [1, 2]]
  default_visibility: 1
history:
  capacity: 10
autosave:
  enabled: false
  interval: 5s
export:
  bbox_padding: 0
`
		if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(filename)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Language != "pt-BR" {
			t.Errorf("Language = %q, want pt-BR", cfg.Language)
		}
		if cfg.History.Capacity != 10 {
			t.Errorf("History.Capacity = %d, want 10", cfg.History.Capacity)
		}
		if cfg.Autosave.Interval != 5*time.Second || cfg.AutosaveEnabled() {
			t.Errorf("Autosave = %+v, want disabled with 5s interval", cfg.Autosave)
		}
		if cfg.Autosave.Tick != 30*time.Second {
			t.Errorf("Autosave.Tick = %v, want the default", cfg.Autosave.Tick)
		}
		if cfg.BBoxPadding() != 0 {
			t.Errorf("BBoxPadding() = %v, want 0", cfg.BBoxPadding())
		}
		if cfg.DefaultVisibility() != 1 {
			t.Errorf("DefaultVisibility() = %v, want 1", cfg.DefaultVisibility())
		}
		if got := cfg.Skeleton().Name(2); got != "tail" {
			t.Errorf("Name(2) = %q, want tail", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"pair out of range", func(c *Config) { c.Keypoints.Skeleton = [][]int{{0, 40}} }, "references keypoint 40"},
		{"pair arity", func(c *Config) { c.Keypoints.Skeleton = [][]int{{0}} }, "two keypoint ids"},
		{"capacity", func(c *Config) { c.History.Capacity = -1 }, "capacity"},
		{"visibility", func(c *Config) { v := 3; c.Keypoints.DefaultVisibility = &v }, "default visibility"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want an error containing %q", err, tt.want)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestParseKeypointLabels(t *testing.T) {
	got := ParseKeypointLabels("KEYPOINT_LABELS = {\n  0: 'Nose',\n  2 : \"Right Eye\",\n}\n")
	if len(got) != 2 || got[0] != "Nose" || got[2] != "Right Eye" {
		t.Errorf("ParseKeypointLabels = %v", got)
	}
	if got := ParseKeypointLabels("0: 'Nose'"); got != nil {
		t.Errorf("ParseKeypointLabels without braces = %v, want nil", got)
	}
}
