// Package config provides configuration management for the wbemctl CLI.
//
// Configuration is layered with koanf: built-in defaults, then
// wbemctl.yaml (or --config), then WBEMCTL_* environment variables,
// then explicitly set command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	Namespace        string         `koanf:"namespace"`
	Provider         string         `koanf:"provider"`
	Fixture          string         `koanf:"fixture"`
	HistoryPath      string         `koanf:"history_path"`
	HistoryEnabled   bool           `koanf:"history_enabled"`
	OutputFormat     string         `koanf:"output"`
	Verbose          bool           `koanf:"verbose"`
	LogLevel         string         `koanf:"log_level"`
	RequireElevation bool           `koanf:"require_elevation"`
	Security         SecurityConfig `koanf:"security"`
}

// SecurityConfig names the authentication and impersonation levels.
type SecurityConfig struct {
	Authentication      string `koanf:"authentication"`
	Impersonation       string `koanf:"impersonation"`
	ProxyAuthentication string `koanf:"proxy_authentication"`
}

// Default configuration values.
const (
	DefaultNamespace   = `ROOT\CIMV2`
	DefaultHistoryFile = ".wbemctl/history.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
)

// DefaultProvider is the provider used when none is configured: the WMI
// service on Windows, the built-in fixture catalog elsewhere.
func DefaultProvider() string {
	if runtime.GOOS == "windows" {
		return "ole"
	}
	return "fixture"
}

// CoreSecurity converts the configured level names.
func (s SecurityConfig) CoreSecurity() (core.Security, error) {
	sec := core.DefaultSecurity()
	var err error
	if s.Authentication != "" {
		if sec.Authentication, err = core.ParseAuthLevel(s.Authentication); err != nil {
			return core.Security{}, fmt.Errorf("security.authentication: %w", err)
		}
	}
	if s.Impersonation != "" {
		if sec.Impersonation, err = core.ParseImpLevel(s.Impersonation); err != nil {
			return core.Security{}, fmt.Errorf("security.impersonation: %w", err)
		}
	}
	if s.ProxyAuthentication != "" {
		if sec.ProxyAuthentication, err = core.ParseAuthLevel(s.ProxyAuthentication); err != nil {
			return core.Security{}, fmt.Errorf("security.proxy_authentication: %w", err)
		}
	}
	return sec, nil
}

// Level returns the slog level for the configuration: debug when
// verbose, otherwise the configured log level.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// ParseLogLevel converts debug, info, warn or error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
}
