// Package config loads runtime configuration: infrastructure settings from
// environment variables and the run definition from a YAML file.
//
// Configuration problems are construction-time failures: Load and LoadRun
// return errors and callers are expected to exit, unlike data conditions
// (rejected orders, dropped candles) which flow through the engine as
// values.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Config holds infrastructure configuration loaded from environment
// variables.
type Config struct {
	// Feed selects the candle source: sqlite, redis or ws.
	Feed string

	RedisAddr     string
	RedisPassword string
	RedisStream   string
	WSURL         string

	SQLitePath  string
	JournalPath string
	MetricsAddr string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	return &Config{
		Feed: getEnv("FEED", "sqlite"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisStream:   getEnv("REDIS_STREAM", "candles"),
		WSURL:         getEnv("WS_URL", ""),

		SQLitePath:  getEnv("SQLITE_PATH", "data/candles.db"),
		JournalPath: getEnv("JOURNAL_PATH", "data/journal.db"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
	}
}

// RunConfig is the YAML run definition: stream shape, account, strategy and
// any extra indicator columns to record.
type RunConfig struct {
	Base         string  `yaml:"base" validate:"required"`
	StartBalance float64 `yaml:"start_balance" validate:"gt=0"`
	Keep         int     `yaml:"keep" validate:"gte=0"`

	Strategy StrategyConfig    `yaml:"strategy" validate:"required"`
	Extra    []IndicatorConfig `yaml:"extra_indicators" validate:"dive"`
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name string  `yaml:"name" validate:"required,oneof=sma_crossover"`
	TF   string  `yaml:"tf" validate:"required"`
	Fast int     `yaml:"fast" validate:"gt=0"`
	Slow int     `yaml:"slow" validate:"gt=0"`
	Qty  float64 `yaml:"qty" validate:"gt=0"`
}

// IndicatorConfig is one extra indicator column.
type IndicatorConfig struct {
	TF     string    `yaml:"tf" validate:"required"`
	Name   string    `yaml:"name" validate:"required"`
	Params []float64 `yaml:"params"`
}

// LoadRun reads and validates a run definition.
func LoadRun(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config read %s: %w", path, err)
	}

	var rc RunConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("config parse %s: %w", path, err)
	}

	if err := validator.New().Struct(&rc); err != nil {
		return nil, fmt.Errorf("config validate %s: %w", path, err)
	}
	if rc.Strategy.Fast >= rc.Strategy.Slow {
		return nil, fmt.Errorf("config validate %s: strategy fast period %d must be below slow period %d",
			path, rc.Strategy.Fast, rc.Strategy.Slow)
	}
	return &rc, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
