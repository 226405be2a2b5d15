/*
Package config loads the server configuration.

PURPOSE:
  Holds the deployment knobs that used to be hard-coded constants: the
  cutoff date (last real-world issuance), the default projection horizon,
  the database path, and the alias-table extensions. All fields have
  working defaults; a config file only overrides what it names, and flags
  override the file (see cmd/server).
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Port   int    `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// CutoffDate is the last date real issuances occurred; projections
	// only count occurrences strictly after it.
	CutoffDate string `yaml:"cutoff_date"` // "YYYY-MM-DD"

	// DefaultHorizonMonths is the default projection window length.
	DefaultHorizonMonths int `yaml:"default_horizon_months"`

	// DepartmentAliases extends the built-in alias table
	// (raw spelling -> canonical name).
	DepartmentAliases map[string]string `yaml:"department_aliases"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                 8080,
		DBPath:               "uniform.db",
		CutoffDate:           "2025-08-31",
		DefaultHorizonMonths: 12,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must be set")
	}
	if _, err := c.Cutoff(); err != nil {
		return err
	}
	if c.DefaultHorizonMonths <= 0 {
		return fmt.Errorf("config: default_horizon_months must be positive")
	}
	return nil
}

// Cutoff parses the configured cutoff date.
func (c *Config) Cutoff() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.CutoffDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: bad cutoff_date %q: %w", c.CutoffDate, err)
	}
	return t, nil
}
