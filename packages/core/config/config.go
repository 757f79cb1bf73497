package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the yapi configuration file
type Config struct {
	Timeout         int               `json:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `json:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty"`
	Rate            float64           `json:"rate,omitempty"`    // requests per second
	Headers         map[string]string `json:"headers,omitempty"` // Initial live headers
	Root            string            `json:"root,omitempty"`    // Initial base URL
	EnvFiles        []string          `json:"envFile,omitempty"`
	Output          string            `json:"output,omitempty"`
	StrictActions   *bool             `json:"strictActions,omitempty"`
	WaitFor         string            `json:"waitFor,omitempty"`
	Pause           *bool             `json:"pause,omitempty"`
	Verbose         *bool             `json:"verbose,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetStrictActions returns the strict actions setting, defaulting to true
func (c *Config) GetStrictActions() bool {
	return getBool(c.StrictActions, true)
}

func (c *Config) GetPause() bool {
	return getBool(c.Pause, false)
}

func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns the request timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".yapi.json",
	"yapi.config.json",
	".yapirc",
	".yapirc.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("maxRedirects must not be negative")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.Root != "" {
		result.Root = other.Root
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.WaitFor != "" {
		result.WaitFor = other.WaitFor
	}
	if len(other.EnvFiles) > 0 {
		result.EnvFiles = other.EnvFiles
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.StrictActions != nil {
		result.StrictActions = other.StrictActions
	}
	if other.Pause != nil {
		result.Pause = other.Pause
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}
