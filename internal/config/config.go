// Package config provides application configuration management, reading and
// writing the twiggy configuration file stored in the repository's git
// directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file name inside the git directory
const FileName = "twiggy.toml"

// Config holds the application configuration
type Config struct {
	Git   GitConfig   `toml:"git"`
	Watch WatchConfig `toml:"watch"`
}

// GitConfig controls how repository history is read
type GitConfig struct {
	// DefaultBranch is used when HEAD cannot be resolved (unborn repository)
	DefaultBranch string `toml:"default_branch"`
	// MaxCommits caps how much history a snapshot loads; zero disables the cap
	MaxCommits int `toml:"max_commits"`
}

// WatchConfig controls the external-change watcher
type WatchConfig struct {
	// Enabled turns the filesystem watch on
	Enabled bool `toml:"enabled"`
	// DebounceMillis is the window for coalescing event bursts into one refresh
	DebounceMillis int `toml:"debounce_ms"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Git: GitConfig{
			DefaultBranch: "main",
			MaxCommits:    1000,
		},
		Watch: WatchConfig{
			Enabled:        true,
			DebounceMillis: 250,
		},
	}
}

// DebounceWindow returns the watch debounce window as a duration
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.Watch.DebounceMillis) * time.Millisecond
}

// Load reads the configuration from the given git directory. A missing file
// yields the defaults; a malformed file is an error.
func Load(gitDir string) (Config, error) {
	path := filepath.Join(gitDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	if cfg.Git.MaxCommits < 0 {
		return Config{}, fmt.Errorf("invalid config: max_commits must not be negative")
	}
	if cfg.Watch.DebounceMillis < 0 {
		return Config{}, fmt.Errorf("invalid config: debounce_ms must not be negative")
	}

	return cfg, nil
}

// LoadOrDefault reads the configuration, falling back to defaults on any error
func LoadOrDefault(gitDir string) Config {
	cfg, err := Load(gitDir)
	if err != nil {
		return Default()
	}
	return cfg
}

// Save writes the configuration to the given git directory
func Save(gitDir string, cfg Config) error {
	path := filepath.Join(gitDir, FileName)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
