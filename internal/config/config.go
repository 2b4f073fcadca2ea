// Package config handles loading myt's config.toml.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/amonks/myt/internal/paths"
	"github.com/amonks/myt/recur"
)

// Config represents the config.toml file.
type Config struct {
	Database   Database   `toml:"database"`
	Recurrence Recurrence `toml:"recurrence"`
	View       View       `toml:"view"`
}

// Database contains storage configuration.
type Database struct {
	// Path is the SQLite database file. A leading "~" is expanded.
	Path string `toml:"path"`
}

// Recurrence contains recurring task configuration.
type Recurrence struct {
	// Horizon overrides how many days ahead occurrences are created, keyed
	// by mode code or name (D, weekly, MD, ...).
	Horizon map[string]int `toml:"horizon"`
}

// View contains display configuration.
type View struct {
	// Color enables styled table rows. Defaults to true.
	Color bool `toml:"color"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{View: View{Color: true}}
}

// Load loads configuration from path, or from the default location when
// path is empty. Returns the defaults if the file does not exist.
func Load(path string) (*Config, error) {
	path, err := paths.ResolveWithDefault(path, paths.DefaultConfigPath)
	if err != nil {
		return nil, err
	}

	cfg, meta, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}

	return mergeConfigs(Default(), cfg, meta), nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: unknown key %q", path, undecoded[0].String())
	}

	return &cfg, meta, nil
}

func mergeConfigs(defaults, fileCfg *Config, fileMeta toml.MetaData) *Config {
	merged := *defaults
	if fileMeta.IsDefined("database", "path") {
		merged.Database.Path = strings.TrimSpace(fileCfg.Database.Path)
	}
	if fileMeta.IsDefined("view", "color") {
		merged.View.Color = fileCfg.View.Color
	}
	if fileMeta.IsDefined("recurrence", "horizon") {
		merged.Recurrence.Horizon = make(map[string]int, len(fileCfg.Recurrence.Horizon))
		for mode, days := range fileCfg.Recurrence.Horizon {
			merged.Recurrence.Horizon[mode] = days
		}
	}
	return &merged
}

// DatabasePath returns the configured database path with "~" expanded, or
// an empty string when none is configured.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path == "" {
		return "", nil
	}
	return paths.ExpandHome(c.Database.Path)
}

// Horizons returns the recurrence horizons with configured overrides applied.
func (c *Config) Horizons() (recur.Horizons, error) {
	horizons, err := recur.DefaultHorizons().With(c.Recurrence.Horizon)
	if err != nil {
		return nil, fmt.Errorf("config recurrence.horizon: %w", err)
	}
	return horizons, nil
}
