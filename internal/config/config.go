// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level
}

// DefaultDBPath returns the per-user store location,
// $XDG_DATA_HOME/safeguard/safeguard.db (typically ~/.local/share on Linux).
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "safeguard", "safeguard.db")
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: SAFEGUARD_LISTEN_ADDR (127.0.0.1:8080),
// SAFEGUARD_DB_PATH (DefaultDBPath), SAFEGUARD_LOG_LEVEL (info).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("SAFEGUARD_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	dbPath := DefaultDBPath()
	if v, ok := os.LookupEnv("SAFEGUARD_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("SAFEGUARD_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("SAFEGUARD_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		ListenAddr: listenAddr,
		DBPath:     dbPath,
		LogLevel:   logLevel,
	}, nil
}
