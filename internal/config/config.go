package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"scenecraft/internal/relstatus"
	"scenecraft/internal/strategy"
)

const DefaultPath = "scenecraft.yaml"

type ProjectConfig struct {
	Project   string          `yaml:"project"`
	Version   int             `yaml:"version"`
	Chat      string          `yaml:"chat"`
	Database  DatabaseConfig  `yaml:"database"`
	Snapshots SnapshotConfig  `yaml:"snapshots"`
	Chapters  ChapterConfig   `yaml:"chapters"`
	Gate      relstatus.Tiers `yaml:"gate"`
	Steps     []Step          `yaml:"steps"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type SnapshotConfig struct {
	Interval   int `yaml:"interval"`
	MaxEntries int `yaml:"max_entries"`
}

type ChapterConfig struct {
	// TimeJump is the narrative time gap that closes a chapter, e.g. "6h".
	TimeJump time.Duration `yaml:"time_jump"`
}

// Step is an extraction step and the strategy that decides when it runs.
type Step struct {
	Name     string            `yaml:"name"`
	Strategy strategy.Strategy `yaml:"strategy"`
}

// EnvOverrides are read from the environment and win over the file.
type EnvOverrides struct {
	DSN              string        `env:"SCENECRAFT_DSN"`
	Chat             string        `env:"SCENECRAFT_CHAT"`
	SnapshotInterval *int          `env:"SCENECRAFT_SNAPSHOT_INTERVAL"`
	TimeJump         time.Duration `env:"SCENECRAFT_CHAPTER_TIME_JUMP"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays SCENECRAFT_* environment variables onto cfg.
func ApplyEnv(cfg *ProjectConfig) error {
	var overrides EnvOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if overrides.DSN != "" {
		cfg.Database.DSN = overrides.DSN
	}
	if overrides.Chat != "" {
		cfg.Chat = overrides.Chat
	}
	if overrides.SnapshotInterval != nil {
		cfg.Snapshots.Interval = *overrides.SnapshotInterval
	}
	if overrides.TimeJump > 0 {
		cfg.Chapters.TimeJump = overrides.TimeJump
	}
	return nil
}

// StepStrategy returns the strategy configured for the named step.
func (c *ProjectConfig) StepStrategy(name string) (strategy.Strategy, bool) {
	for _, step := range c.Steps {
		if strings.EqualFold(step.Name, name) {
			return step.Strategy, true
		}
	}
	return strategy.Strategy{}, false
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if strings.TrimSpace(cfg.Chat) == "" {
		return fmt.Errorf("chat id is required")
	}
	if cfg.Snapshots.Interval < 0 {
		return fmt.Errorf("snapshot interval must not be negative")
	}
	if cfg.Snapshots.MaxEntries < 0 {
		return fmt.Errorf("snapshot max_entries must not be negative")
	}
	if cfg.Chapters.TimeJump < 0 {
		return fmt.Errorf("chapter time_jump must not be negative")
	}

	seen := make(map[string]struct{})
	for i, step := range cfg.Steps {
		if strings.TrimSpace(step.Name) == "" {
			return fmt.Errorf("step %d name is required", i)
		}
		key := strings.ToLower(step.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate step name: %s", step.Name)
		}
		seen[key] = struct{}{}
		if step.Strategy.Kind == strategy.Custom {
			return fmt.Errorf("step %s: custom strategies cannot be configured from file", step.Name)
		}
		if err := step.Strategy.Validate(); err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
	}

	return nil
}
