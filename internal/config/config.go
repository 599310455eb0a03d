// Package config loads focusbuddy settings from defaults, a YAML file and
// BUDDY_* environment variables, and watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvPrefix is stripped from environment variables before mapping them to keys.
const EnvPrefix = "BUDDY_"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete application configuration.
type Config struct {
	DB        DBConfig       `koanf:"db"`
	Log       LogConfig      `koanf:"log"`
	Reminders ReminderConfig `koanf:"reminders"`
	Forecast  ForecastConfig `koanf:"forecast"`
	Metrics   MetricsConfig  `koanf:"metrics"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

// LogConfig controls the zap logger. Format is "console" or "json".
type LogConfig struct {
	Level       string `koanf:"level"`
	Format      string `koanf:"format"`
	Development bool   `koanf:"development"`
	File        string `koanf:"file"`
}

// ReminderConfig holds the fallback interval of each reminder kind.
type ReminderConfig struct {
	Disabled             bool          `koanf:"disabled"`
	BurnoutCheck         time.Duration `koanf:"burnout_check"`
	ProcrastinationNudge time.Duration `koanf:"procrastination_nudge"`
	BreakElapsed         time.Duration `koanf:"break_elapsed"`
}

type ForecastConfig struct {
	// HistoryLimit is the number of recent sessions a prediction looks at.
	HistoryLimit int `koanf:"history_limit"`
	// TrainLimit is the number of recent sessions a training run summarizes.
	TrainLimit int `koanf:"train_limit"`
	// RatioWindow is the number of sessions averaged for the focus ratio.
	RatioWindow int `koanf:"ratio_window"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DB.Path == "" {
		cfg.DB.Path = filepath.Join(homeDir(), ".focusbuddy", "focusbuddy.db")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Reminders.BurnoutCheck == 0 {
		cfg.Reminders.BurnoutCheck = 45 * time.Minute
	}
	if cfg.Reminders.ProcrastinationNudge == 0 {
		cfg.Reminders.ProcrastinationNudge = 5 * time.Minute
	}
	if cfg.Reminders.BreakElapsed == 0 {
		cfg.Reminders.BreakElapsed = 30 * time.Minute
	}
	if cfg.Forecast.HistoryLimit == 0 {
		cfg.Forecast.HistoryLimit = 200
	}
	if cfg.Forecast.TrainLimit == 0 {
		cfg.Forecast.TrainLimit = 500
	}
	if cfg.Forecast.RatioWindow == 0 {
		cfg.Forecast.RatioWindow = 50
	}
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	for name, d := range map[string]time.Duration{
		"reminders.burnout_check":         c.Reminders.BurnoutCheck,
		"reminders.procrastination_nudge": c.Reminders.ProcrastinationNudge,
		"reminders.break_elapsed":         c.Reminders.BreakElapsed,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	for name, n := range map[string]int{
		"forecast.history_limit": c.Forecast.HistoryLimit,
		"forecast.train_limit":   c.Forecast.TrainLimit,
		"forecast.ratio_window":  c.Forecast.RatioWindow,
	} {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, n))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// DefaultPath returns $BUDDY_CONFIG or ~/.focusbuddy/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return filepath.Join(homeDir(), ".focusbuddy", "config.yaml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
