// Package config loads calc-api settings from calc-api.toml, an optional
// per-environment overlay, a .env file and CALC_API_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "calc-api.toml"
	OverlayConfigPattern = "calc-api.%s.toml"
	DotEnvFile           = ".env"

	EnvCalcAPIEnv         = "CALC_API_ENV"
	EnvCalcAPIStage       = "CALC_API_STAGE"
	EnvCalcAPIRegion      = "CALC_API_REGION"
	EnvCalcAPIStackPrefix = "CALC_API_STACK_PREFIX"
	EnvCalcAPIDebug       = "CALC_API_DEBUG"
	EnvAWSRegion          = "AWS_REGION"
)

// Config is the root configuration for the calc-api CLI.
type Config struct {
	Stage       string          `toml:"stage"`
	Region      string          `toml:"region"`
	StackPrefix string          `toml:"stack_prefix"`
	Debug       bool            `toml:"debug"`
	Artifacts   ArtifactsConfig `toml:"artifacts"`
	Function    FunctionConfig  `toml:"function"`
}

// Load reads dir/calc-api.toml (if present), applies the overlay named by
// CALC_API_ENV, loads dir/.env without overriding variables already set, and
// finalizes all values. With no files, defaults and environment variables
// provide all configuration.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, DotEnvFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	base := filepath.Join(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Env returns the CALC_API_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCalcAPIEnv); env != "" {
		return env
	}
	return "local"
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Stage != "" {
		c.Stage = overlay.Stage
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.StackPrefix != "" {
		c.StackPrefix = overlay.StackPrefix
	}
	if overlay.Debug {
		c.Debug = true
	}
	c.Artifacts.Merge(&overlay.Artifacts)
	c.Function.Merge(&overlay.Function)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Artifacts.Finalize(); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	if err := c.Function.Finalize(); err != nil {
		return fmt.Errorf("function: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Stage == "" {
		c.Stage = c.Env()
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCalcAPIStage); v != "" {
		c.Stage = v
	}
	if v := os.Getenv(EnvAWSRegion); v != "" && c.Region == "" {
		c.Region = v
	}
	if v := os.Getenv(EnvCalcAPIRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvCalcAPIStackPrefix); v != "" {
		c.StackPrefix = v
	}
	if v := os.Getenv(EnvCalcAPIDebug); v != "" {
		c.Debug = v != "0" && v != "false"
	}
}

// SetStage overrides the stage, as the --stage flag does, and validates it.
func (c *Config) SetStage(stage string) error {
	prev := c.Stage
	c.Stage = stage
	if err := c.validate(); err != nil {
		c.Stage = prev
		return err
	}
	return nil
}

func (c *Config) validate() error {
	for _, r := range c.Stage {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return fmt.Errorf("invalid stage %q: letters, digits and dashes only", c.Stage)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvCalcAPIEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// parseDuration accepts an empty string as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
