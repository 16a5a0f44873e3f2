// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultPriority        = 50
	DefaultTodoPickerLimit = 10
	DefaultAutoSync        = true
)

// DefaultWeights returns the default priority factor weights.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"goal_priority":      0.25,
		"project_priority":   0.15,
		"age_urgency":        0.15,
		"deadline_pressure":  0.20,
		"effort_value":       0.10,
		"git_activity_boost": 0.10,
		"blocking_impact":    0.05,
	}
}

// DefaultEffortScores returns the default effort-to-score table.
func DefaultEffortScores() map[string]float64 {
	return map[string]float64{
		"S":  80,
		"M":  60,
		"L":  40,
		"XL": 20,
	}
}

// Config holds the full configuration for pm.
type Config struct {
	// Paths
	WorkspacePath string `toml:"workspace_path"`
	DBPath        string `toml:"db_path"`

	// Behavior
	DefaultPriority  int  `toml:"default_priority"`
	ShowCompleted    bool `toml:"show_completed"`
	TodoPickerLimit  int  `toml:"todo_picker_limit"`
	AutoSyncOnReview bool `toml:"auto_sync_on_review"`
	Verbose          bool `toml:"verbose"`

	// Scoring
	PriorityWeights map[string]float64 `toml:"priority_weights"`
	EffortScores    map[string]float64 `toml:"effort_scores"`
}

// DefaultPath returns the default config file location (~/.pm/config.toml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pm", "config.toml"), nil
}

// Load reads configuration from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	mergeDefaults(cfg)
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// Weight returns the configured weight for a factor, or the default when
// the factor is absent or negative.
func (c *Config) Weight(factor string) float64 {
	if w, ok := c.PriorityWeights[factor]; ok && w >= 0 {
		return w
	}
	return DefaultWeights()[factor]
}

// EffortScore returns the configured score for an effort level, 50 for
// unknown levels.
func (c *Config) EffortScore(effort string) float64 {
	if s, ok := c.EffortScores[effort]; ok {
		return s
	}
	if s, ok := DefaultEffortScores()[effort]; ok {
		return s
	}
	return 50
}

func setDefaults(cfg *Config) {
	cfg.DefaultPriority = DefaultPriority
	cfg.TodoPickerLimit = DefaultTodoPickerLimit
	cfg.AutoSyncOnReview = DefaultAutoSync
	cfg.PriorityWeights = DefaultWeights()
	cfg.EffortScores = DefaultEffortScores()
}

// mergeDefaults backfills factors and effort levels a config file omitted
func mergeDefaults(cfg *Config) {
	if cfg.TodoPickerLimit <= 0 {
		cfg.TodoPickerLimit = DefaultTodoPickerLimit
	}
	if cfg.PriorityWeights == nil {
		cfg.PriorityWeights = DefaultWeights()
	} else {
		for k, v := range DefaultWeights() {
			if _, ok := cfg.PriorityWeights[k]; !ok {
				cfg.PriorityWeights[k] = v
			}
		}
	}
	if cfg.EffortScores == nil {
		cfg.EffortScores = DefaultEffortScores()
	} else {
		for k, v := range DefaultEffortScores() {
			if _, ok := cfg.EffortScores[k]; !ok {
				cfg.EffortScores[k] = v
			}
		}
	}
}
