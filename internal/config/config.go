package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxDisplayRows is the number of rows materialized by the show and display shortcuts.
	DefaultMaxDisplayRows = 50

	// DefaultExplainVerbose selects the full plan description for the explain shortcut.
	DefaultExplainVerbose = true
)

// RenderConfig holds the options read by the rendering policies.
type RenderConfig struct {
	MaxDisplayRows int  `json:"max_display_rows" yaml:"max_display_rows"`
	ExplainVerbose bool `json:"explain_verbose" yaml:"explain_verbose"`
}

// DefaultRenderConfig returns the built-in rendering options.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		MaxDisplayRows: DefaultMaxDisplayRows,
		ExplainVerbose: DefaultExplainVerbose,
	}
}

// Validate checks the options for invalid values.
func (c RenderConfig) Validate() error {
	if c.MaxDisplayRows < 0 {
		return fmt.Errorf("Invalid max_display_rows %d: must not be negative", c.MaxDisplayRows)
	}

	return nil
}

// Config wraps the rendering config with get, set and lock capabilities.
type Config struct {
	// Path of the sqlmagic.yaml file. May be empty for a purely in-memory config.
	path string

	// Lock the config for read and write operations.
	lock sync.RWMutex

	// The actual configuration.
	config RenderConfig
}

// NewConfig returns a config holding the default options.
// The config has to be written to file proactively, setting an option doesn't
// automatically get propagated to the underlying file.
func NewConfig(path string) *Config {
	return &Config{
		path:   path,
		config: DefaultRenderConfig(),
	}
}

// Path returns the path of the backing file.
func (c *Config) Path() string {
	return c.path
}

// Load loads the config from its path. A missing file leaves the current options in place.
func (c *Config) Load() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("Failed to load config: %w", err)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	newConfig := c.config
	err = yaml.Unmarshal(data, &newConfig)
	if err != nil {
		return fmt.Errorf("Failed to parse config from yaml: %w", err)
	}

	err = newConfig.Validate()
	if err != nil {
		return err
	}

	c.config = newConfig

	return nil
}

// Write writes the config to its path.
func (c *Config) Write() error {
	if c.path == "" {
		return fmt.Errorf("Config has no backing file")
	}

	c.lock.RLock()
	bytes, err := yaml.Marshal(c.config)
	c.lock.RUnlock()
	if err != nil {
		return fmt.Errorf("Failed to parse config to yaml: %w", err)
	}

	err = renameio.WriteFile(c.path, bytes, 0644)
	if err != nil {
		return fmt.Errorf("Failed to write config yaml: %w", err)
	}

	return nil
}

// Get returns a copy of the current options.
func (c *Config) Get() RenderConfig {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.config
}

// Set replaces the current options after validating them.
func (c *Config) Set(newConfig RenderConfig) error {
	err := newConfig.Validate()
	if err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.config = newConfig

	return nil
}

// SetMaxDisplayRows sets the row cap for the show and display shortcuts.
func (c *Config) SetMaxDisplayRows(rows int) error {
	newConfig := c.Get()
	newConfig.MaxDisplayRows = rows

	return c.Set(newConfig)
}

// SetExplainVerbose selects verbose or physical-only plan output.
func (c *Config) SetExplainVerbose(verbose bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.config.ExplainVerbose = verbose
}
