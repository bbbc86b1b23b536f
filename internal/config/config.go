package config

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "2s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the effective daemon configuration.
type Config struct {
	// StartupDesktop names the initial desktop.
	StartupDesktop string `yaml:"startup_desktop"`
	// IgnoredClasses lists WM_CLASS values that are never managed.
	IgnoredClasses []string `yaml:"ignored_classes"`
	// IgnorePrivilegeCheck skips the construction-time privilege probe.
	IgnorePrivilegeCheck bool `yaml:"ignore_privilege_check"`
	// RepositionTimeout bounds every show/hide batch.
	RepositionTimeout Duration `yaml:"reposition_timeout"`
	// RefreshInterval is the daemon's association refresh cadence.
	RefreshInterval Duration `yaml:"refresh_interval"`
	// ProcessPollInterval is the process watcher cadence.
	ProcessPollInterval Duration `yaml:"process_poll_interval"`
	// TerminalProviders lists terminal executable names that get a
	// built-in persistence provider.
	TerminalProviders []string `yaml:"terminal_providers"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StartupDesktop:      "main",
		RepositionTimeout:   Duration(2 * time.Second),
		RefreshInterval:     Duration(5 * time.Second),
		ProcessPollInterval: Duration(2 * time.Second),
		TerminalProviders:   []string{"xterm"},
		LogLevel:            "info",
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.StartupDesktop == "" {
		return fmt.Errorf("startup_desktop is required")
	}
	if c.RepositionTimeout <= 0 {
		return fmt.Errorf("reposition_timeout must be positive")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive")
	}
	if c.ProcessPollInterval <= 0 {
		return fmt.Errorf("process_poll_interval must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog's level scale.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
