package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultBudget is the monthly budget in dollars when nothing else is
// configured.
const DefaultBudget = 15.00

// Config holds the CLI configuration.
type Config struct {
	Budget        float64       `yaml:"budget"`
	LogsDir       string        `yaml:"logs_dir"`
	StatePath     string        `yaml:"state_path"`
	CachePath     string        `yaml:"cache_path"`
	LogLevel      string        `yaml:"log_level"`
	GuardInterval time.Duration `yaml:"guard_interval"`
}

// envOverrides are applied on top of the config file. Pointer fields
// distinguish "set to zero" from "not set".
type envOverrides struct {
	Budget        *float64       `envconfig:"BUDGET"`
	LogsDir       string         `envconfig:"LOGS_DIR"`
	StatePath     string         `envconfig:"STATE_PATH"`
	CachePath     string         `envconfig:"CACHE_PATH"`
	LogLevel      string         `envconfig:"LOG_LEVEL"`
	GuardInterval *time.Duration `envconfig:"GUARD_INTERVAL"`
}

// DefaultPath returns the path to the config file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ccguard.yaml"), nil
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Budget:        DefaultBudget,
		LogsDir:       filepath.Join(home, ".claude", "projects"),
		StatePath:     filepath.Join(home, ".claude", "ccguard_state.json"),
		CachePath:     filepath.Join(home, ".claude", "ccguard_cache.db"),
		LogLevel:      "warn",
		GuardInterval: time.Hour,
	}, nil
}

// Load builds the effective configuration: defaults, then the YAML file
// (missing file is fine), then CCGUARD_* environment overrides. An empty
// path means the default config file location.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file, defaults apply.
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	var env envOverrides
	if err := envconfig.Process("ccguard", &env); err != nil {
		return nil, err
	}
	if env.Budget != nil {
		cfg.Budget = *env.Budget
	}
	if env.LogsDir != "" {
		cfg.LogsDir = env.LogsDir
	}
	if env.StatePath != "" {
		cfg.StatePath = env.StatePath
	}
	if env.CachePath != "" {
		cfg.CachePath = env.CachePath
	}
	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
	if env.GuardInterval != nil {
		cfg.GuardInterval = *env.GuardInterval
	}

	return cfg, nil
}
