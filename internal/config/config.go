// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/job-autopilot/internal/portal"
	"github.com/jonathan/job-autopilot/internal/scheduler"
)

// Duration is a time.Duration written as a Go duration string ("30s") in config files.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v))
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the autopilot configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults.
type Config struct {
	// Inputs
	Profiles string `json:"profiles,omitempty" yaml:"profiles,omitempty"` // Path to profiles JSON
	Jobs     string `json:"jobs,omitempty" yaml:"jobs,omitempty"`         // Path to jobs JSON; empty fetches from the portal

	// Portal
	PortalURL     string         `json:"portal_url,omitempty" yaml:"portal_url,omitempty" validate:"omitempty,url"`
	SubmitTimeout Duration       `json:"submit_timeout,omitempty" yaml:"submit_timeout,omitempty" validate:"gte=0"`
	PortalRPS     float64        `json:"portal_rps,omitempty" yaml:"portal_rps,omitempty" validate:"gte=0"` // 0 disables client-side limiting
	Filters       portal.Filters `json:"filters,omitempty" yaml:"filters,omitempty"`

	// Storage and logs
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	AuditDir    string `json:"audit_dir,omitempty" yaml:"audit_dir,omitempty"`
	LogLevel    string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// Runs
	Schedule    []string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	MaxParallel int      `json:"max_parallel,omitempty" yaml:"max_parallel,omitempty" validate:"gte=0"`
	Port        int      `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		PortalURL:     portal.DefaultBaseURL,
		SubmitTimeout: Duration(portal.DefaultTimeout),
		AuditDir:      "logs",
		LogLevel:      "info",
		Schedule:      append([]string(nil), scheduler.DefaultTimes...),
		MaxParallel:   4,
		Port:          8080,
	}
}

// LoadConfig loads configuration from a JSON file, or YAML when the extension is
// .yaml or .yml. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from the environment. SANDBOX_URL is read when
// PORTAL_URL is unset.
func (c *Config) ApplyEnv() {
	if v := firstEnv("PORTAL_URL", "SANDBOX_URL"); v != "" {
		c.PortalURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that the configuration has valid values. Input file paths are
// checked for existence when set.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	for _, spec := range c.Schedule {
		if _, err := scheduler.ParseSpec(spec); err != nil {
			return fmt.Errorf("config error: schedule: %w", err)
		}
	}

	if c.Profiles != "" {
		if _, err := os.Stat(c.Profiles); os.IsNotExist(err) {
			return fmt.Errorf("config error: profiles file not found: %s", c.Profiles)
		}
	}
	if c.Jobs != "" {
		if _, err := os.Stat(c.Jobs); os.IsNotExist(err) {
			return fmt.Errorf("config error: jobs file not found: %s", c.Jobs)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Profiles == "" {
		result.Profiles = defaults.Profiles
	}
	if result.Jobs == "" {
		result.Jobs = defaults.Jobs
	}
	if result.PortalURL == "" {
		result.PortalURL = defaults.PortalURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.AuditDir == "" {
		result.AuditDir = defaults.AuditDir
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	if result.SubmitTimeout == 0 {
		result.SubmitTimeout = defaults.SubmitTimeout
	}
	if result.PortalRPS == 0 {
		result.PortalRPS = defaults.PortalRPS
	}
	if result.MaxParallel == 0 {
		result.MaxParallel = defaults.MaxParallel
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if len(result.Schedule) == 0 {
		result.Schedule = append([]string(nil), defaults.Schedule...)
	}

	// Filters merge as a whole; a partially set filter is kept as is.
	if isZeroFilters(result.Filters) {
		result.Filters = defaults.Filters
	}

	return result
}

func isZeroFilters(f portal.Filters) bool {
	return f.Location == "" && f.JobType == "" && f.ExperienceLevel == "" &&
		f.Company == "" && f.Search == "" && len(f.Skills) == 0 && f.Limit == 0
}
