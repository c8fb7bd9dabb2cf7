package annotation

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/export"
	"github.com/lewtec/keylabel/internal/history"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Language   string           `yaml:"language"`
	Catalog    string           `yaml:"catalog"`
	Keypoints  ConfigKeypoints  `yaml:"keypoints"`
	History    ConfigHistory    `yaml:"history"`
	Autosave   ConfigAutosave   `yaml:"autosave"`
	Thresholds ConfigThresholds `yaml:"thresholds"`
	Export     ConfigExport     `yaml:"export"`
}

type ConfigKeypoints struct {
	Names []string `yaml:"names"`
	// Skeleton pairs use 0-based keypoint ids
	Skeleton          [][]int `yaml:"skeleton"`
	DefaultVisibility *int    `yaml:"default_visibility"`
}

type ConfigHistory struct {
	Capacity int `yaml:"capacity"`
}

type ConfigAutosave struct {
	Enabled  *bool         `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Tick     time.Duration `yaml:"tick"`
}

type ConfigThresholds struct {
	Edit  float64 `yaml:"edit"`
	Hover float64 `yaml:"hover"`
}

type ConfigExport struct {
	BBoxPadding      *float64 `yaml:"bbox_padding"`
	OneBasedSkeleton bool     `yaml:"one_based_skeleton"`
	Category         string   `yaml:"category"`
}

// DefaultConfig returns the settings used when no config file is given
func DefaultConfig() *Config {
	skeleton := domain.DefaultSkeleton()
	visibility := int(domain.Visible)
	padding := float64(export.DefaultPadding)
	enabled := true
	cfg := &Config{
		Language: "en",
		Keypoints: ConfigKeypoints{
			Names:             skeleton.Names,
			DefaultVisibility: &visibility,
		},
		History: ConfigHistory{Capacity: history.DefaultCapacity},
		Autosave: ConfigAutosave{
			Enabled:  &enabled,
			Interval: 30 * time.Second,
			Tick:     30 * time.Second,
		},
		Thresholds: ConfigThresholds{Edit: 30, Hover: 20},
		Export: ConfigExport{
			BBoxPadding: &padding,
			Category:    "person",
		},
	}
	for _, pair := range skeleton.Pairs {
		cfg.Keypoints.Skeleton = append(cfg.Keypoints.Skeleton, []int{pair[0], pair[1]})
	}
	return cfg
}

// LoadConfig reads a YAML config on top of DefaultConfig. An empty filename
// returns the defaults.
func LoadConfig(filename string) (*Config, error) {
	ret := DefaultConfig()
	if filename == "" {
		return ret, nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("while opening config: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("while reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("while parsing config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Validate fills zero values with defaults and rejects inconsistent settings
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.Language == "" {
		c.Language = defaults.Language
	}
	if len(c.Keypoints.Names) == 0 {
		c.Keypoints.Names = defaults.Keypoints.Names
	}
	if c.Keypoints.DefaultVisibility == nil {
		c.Keypoints.DefaultVisibility = defaults.Keypoints.DefaultVisibility
	}
	if c.Autosave.Enabled == nil {
		c.Autosave.Enabled = defaults.Autosave.Enabled
	}
	if c.Autosave.Interval == 0 {
		c.Autosave.Interval = defaults.Autosave.Interval
	}
	if c.Autosave.Tick == 0 {
		c.Autosave.Tick = defaults.Autosave.Tick
	}
	if c.Thresholds.Edit == 0 {
		c.Thresholds.Edit = defaults.Thresholds.Edit
	}
	if c.Thresholds.Hover == 0 {
		c.Thresholds.Hover = defaults.Thresholds.Hover
	}
	if c.Export.BBoxPadding == nil {
		c.Export.BBoxPadding = defaults.Export.BBoxPadding
	}
	if c.Export.Category == "" {
		c.Export.Category = defaults.Export.Category
	}

	if c.History.Capacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", c.History.Capacity)
	}
	if c.Autosave.Interval < 0 || c.Autosave.Tick < 0 {
		return fmt.Errorf("autosave durations must not be negative")
	}
	if v := domain.Visibility(*c.Keypoints.DefaultVisibility); !v.Valid() {
		return fmt.Errorf("default visibility must be 0, 1 or 2, got %d", v)
	}
	if *c.Export.BBoxPadding < 0 {
		return fmt.Errorf("bbox padding must not be negative")
	}
	for i, pair := range c.Keypoints.Skeleton {
		if len(pair) != 2 {
			return fmt.Errorf("skeleton pair %d must have two keypoint ids, got %d", i, len(pair))
		}
		for _, id := range pair {
			if id < 0 || id >= len(c.Keypoints.Names) {
				return fmt.Errorf("skeleton pair %d references keypoint %d, but only %d names are defined", i, id, len(c.Keypoints.Names))
			}
		}
	}
	return nil
}

// Skeleton returns the keypoint names and pairs as a domain skeleton
func (c *Config) Skeleton() domain.Skeleton {
	s := domain.Skeleton{Names: append([]string(nil), c.Keypoints.Names...)}
	for _, pair := range c.Keypoints.Skeleton {
		if len(pair) == 2 {
			s.Pairs = append(s.Pairs, [2]int{pair[0], pair[1]})
		}
	}
	return s
}

// DefaultVisibility returns the visibility given to new keypoints in COCO mode
func (c *Config) DefaultVisibility() domain.Visibility {
	if c.Keypoints.DefaultVisibility == nil {
		return domain.Visible
	}
	return domain.Visibility(*c.Keypoints.DefaultVisibility)
}

// AutosaveEnabled reports whether the autosave loop should run
func (c *Config) AutosaveEnabled() bool {
	return c.Autosave.Enabled == nil || *c.Autosave.Enabled
}

// BBoxPadding returns the COCO bbox margin
func (c *Config) BBoxPadding() float64 {
	if c.Export.BBoxPadding == nil {
		return export.DefaultPadding
	}
	return *c.Export.BBoxPadding
}
