// Package config loads retenet's YAML configuration, following the
// default-then-override shape used throughout the teacher codebase:
// DefaultConfig() seeds sane values, Load() overlays a YAML file, then
// environment variables take the final word.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all retenet configuration.
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Eval    EvalConfig    `yaml:"eval"`
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig bounds the resources a single Network instance may consume.
type NetworkConfig struct {
	// FactLimit caps the number of live WMEs the network will accept;
	// zero means unbounded. Mirrors the teacher's fact-store FactLimit.
	FactLimit int `yaml:"fact_limit"`
}

// EvalConfig configures the external expression evaluator used by Filter
// and Bind conditions.
type EvalConfig struct {
	// Timeout bounds a single template evaluation. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig controls the process-wide zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			FactLimit: 0,
		},
		Eval: EvalConfig{
			Timeout: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RETENET_FACT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Network.FactLimit = n
		}
	}
	if v := os.Getenv("RETENET_EVAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Eval.Timeout = d
		}
	}
	if v := os.Getenv("RETENET_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RETENET_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate reports whether the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Network.FactLimit < 0 {
		return fmt.Errorf("network.fact_limit must be >= 0, got %d", c.Network.FactLimit)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// BuildZapLogger constructs the process-wide zap logger described by
// LoggingConfig, matching the teacher's verbose-aware CLI logger setup in
// cmd/nerd/main.go (zap.NewProductionConfig, debug level when verbose).
func (c *Config) BuildZapLogger() (*zap.Logger, error) {
	var zc zap.Config
	if c.Logging.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging.level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
