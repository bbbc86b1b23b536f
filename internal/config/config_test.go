package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	def := Default()
	if cfg.StartupDesktop != def.StartupDesktop {
		t.Errorf("StartupDesktop = %q", cfg.StartupDesktop)
	}
	if cfg.RefreshInterval != def.RefreshInterval {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval.Std())
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"startup_desktop: workbench",
		"ignored_classes: [xeyes, xclock]",
		"reposition_timeout: 500ms",
		"refresh_interval: 10s",
		"log_level: debug",
	}, "\n"))

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.StartupDesktop != "workbench" {
		t.Errorf("StartupDesktop = %q", cfg.StartupDesktop)
	}
	if len(cfg.IgnoredClasses) != 2 || cfg.IgnoredClasses[0] != "xeyes" {
		t.Errorf("IgnoredClasses = %v", cfg.IgnoredClasses)
	}
	if cfg.RepositionTimeout.Std() != 500*time.Millisecond {
		t.Errorf("RepositionTimeout = %v", cfg.RepositionTimeout.Std())
	}
	if cfg.RefreshInterval.Std() != 10*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval.Std())
	}
	// Unset fields keep their defaults.
	if cfg.ProcessPollInterval != Default().ProcessPollInterval {
		t.Errorf("ProcessPollInterval = %v", cfg.ProcessPollInterval.Std())
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "startup_desktp: main\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("typoed field accepted")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad duration", "refresh_interval: fast\n"},
		{"bad log level", "log_level: chatty\n"},
		{"empty startup desktop", "startup_desktop: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := LoadFromPath(path); err == nil {
				t.Errorf("accepted %q", tc.content)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	cfg = Default()
	cfg.RepositionTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero reposition_timeout accepted")
	}

	cfg = Default()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log_level accepted")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
	}
	for level, want := range cases {
		cfg := Default()
		cfg.LogLevel = level
		if got := cfg.SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%q) = %s, want %s", level, got, want)
		}
	}
}
