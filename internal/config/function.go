package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvFunctionMemorySize = "CALC_API_FUNCTION_MEMORY_SIZE"
	EnvFunctionTimeout    = "CALC_API_FUNCTION_TIMEOUT"
	EnvFunctionTracing    = "CALC_API_FUNCTION_TRACING"
)

// FunctionConfig holds defaults applied to functions that leave them unset.
type FunctionConfig struct {
	MemorySize int    `toml:"memory_size"`
	Timeout    string `toml:"timeout"`
	// Tracing is "Active", "PassThrough", "Disabled" or empty.
	Tracing string `toml:"tracing"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *FunctionConfig) TimeoutDuration() time.Duration {
	d, _ := parseDuration(c.Timeout)
	return d
}

// Finalize applies environment variable overrides and validation.
func (c *FunctionConfig) Finalize() error {
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *FunctionConfig) Merge(overlay *FunctionConfig) {
	if overlay.MemorySize != 0 {
		c.MemorySize = overlay.MemorySize
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Tracing != "" {
		c.Tracing = overlay.Tracing
	}
}

func (c *FunctionConfig) loadEnv() error {
	if v := os.Getenv(EnvFunctionMemorySize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFunctionMemorySize, err)
		}
		c.MemorySize = size
	}
	if v := os.Getenv(EnvFunctionTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvFunctionTracing); v != "" {
		c.Tracing = v
	}
	return nil
}

func (c *FunctionConfig) validate() error {
	if c.MemorySize < 0 {
		return fmt.Errorf("memory_size must not be negative")
	}
	d, err := parseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d%time.Second != 0 {
		return fmt.Errorf("invalid timeout %q: must be whole seconds", c.Timeout)
	}
	switch c.Tracing {
	case "", "Active", "PassThrough", "Disabled":
	default:
		return fmt.Errorf("invalid tracing %q: want Active, PassThrough or Disabled", c.Tracing)
	}
	return nil
}
