// Package config loads the application configuration from a YAML file with
// defaults matching the stock tracker and detector settings.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"trafficwatch/labels"
	"trafficwatch/mot"
	"trafficwatch/stats"
	"trafficwatch/stream"
)

type Config struct {
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Detector DetectorConfig `mapstructure:"detector"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Database DatabaseConfig `mapstructure:"database"`
	Streams  []StreamConfig `mapstructure:"streams"`
}

type TrackerConfig struct {
	MaxDisappeared      int     `mapstructure:"max_disappeared"`
	MinIoU              float64 `mapstructure:"min_iou"`
	MaxTrajectoryPoints int     `mapstructure:"max_trajectory_points"`
}

type DetectorConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type StatsConfig struct {
	HistoryPoints    int           `mapstructure:"history_points"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type StreamConfig struct {
	ID   int    `mapstructure:"id"`
	Dump string `mapstructure:"dump"`
}

// Load reads the configuration file at path, applying defaults for any
// setting the file omits.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "can't read configuration %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "can't unmarshal configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tracker.max_disappeared", mot.DefaultMaxDisappeared)
	v.SetDefault("tracker.min_iou", mot.DefaultMinIoU)
	v.SetDefault("tracker.max_trajectory_points", mot.DefaultMaxTrajectoryPoints)
	v.SetDefault("detector.min_confidence", labels.DefaultMinConfidence)
	v.SetDefault("stats.history_points", stats.DefaultHistoryPoints)
	v.SetDefault("stats.snapshot_interval", 5*time.Second)
	v.SetDefault("database.path", "trafficwatch.db")
}

// Validate checks value ranges and stream slot assignments.
func (c *Config) Validate() error {
	if c.Tracker.MaxDisappeared < 0 {
		return errors.Errorf("tracker.max_disappeared must be non-negative, got %d", c.Tracker.MaxDisappeared)
	}
	if c.Tracker.MinIoU < 0 || c.Tracker.MinIoU > 1 {
		return errors.Errorf("tracker.min_iou must be within [0, 1], got %f", c.Tracker.MinIoU)
	}
	if c.Tracker.MaxTrajectoryPoints < 1 {
		return errors.Errorf("tracker.max_trajectory_points must be positive, got %d", c.Tracker.MaxTrajectoryPoints)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return errors.Errorf("detector.min_confidence must be within [0, 1], got %f", c.Detector.MinConfidence)
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	seen := make(map[int]bool)
	for _, sc := range c.Streams {
		if sc.ID < 0 || sc.ID >= stream.MaxStreams {
			return errors.Errorf("stream ID %d out of range [0, %d)", sc.ID, stream.MaxStreams)
		}
		if seen[sc.ID] {
			return errors.Errorf("stream ID %d assigned twice", sc.ID)
		}
		seen[sc.ID] = true
		if sc.Dump == "" {
			return errors.Errorf("stream %d: dump path must not be empty", sc.ID)
		}
	}
	return nil
}

// StreamSettings maps the configuration onto the stream manager's settings.
func (c *Config) StreamSettings() stream.Config {
	return stream.Config{
		MaxDisappeared:      c.Tracker.MaxDisappeared,
		MinIoU:              c.Tracker.MinIoU,
		MaxTrajectoryPoints: c.Tracker.MaxTrajectoryPoints,
		MinConfidence:       c.Detector.MinConfidence,
		HistoryPoints:       c.Stats.HistoryPoints,
	}
}
