// Package config loads the PFT reader's environment settings and table layout.
//
// Environment settings come from the process environment, optionally seeded
// from a .env file. The table layout lives in a JSON file that the external
// configuration editor writes; see LoadLayout and LayoutWatcher.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	pfterrors "github.com/George-Forgey/PFT-Reader/internal/errors"
)

// Config holds the environment-driven settings.
type Config struct {
	// LayoutPath is the JSON layout file. Required for table reading.
	LayoutPath string

	// LogLevel is one of debug, info, warn or error.
	LogLevel string

	// OCRLanguage is the tesseract language code.
	OCRLanguage string

	// TessdataPrefix overrides the tesseract data directory when set.
	TessdataPrefix string

	// MatchThreshold overrides the layout's match threshold when non-nil.
	MatchThreshold *float64

	// DebugDir receives the cropped table and grid preview of every run.
	DebugDir string

	// DatabaseURL enables run persistence in PostgreSQL when set.
	DatabaseURL string
}

// Load reads configuration from the environment. Each existing env file is
// loaded first without overriding variables that are already set; missing
// files are ignored. With no arguments ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, pfterrors.NewConfigError(f, "env_file", err)
		}
	}

	cfg := &Config{
		LayoutPath:     getEnvOrDefault("PFT_LAYOUT_PATH", ""),
		LogLevel:       strings.ToLower(getEnvOrDefault("PFT_LOG_LEVEL", "info")),
		OCRLanguage:    getEnvOrDefault("PFT_OCR_LANGUAGE", "eng"),
		TessdataPrefix: getEnvOrDefault("PFT_TESSDATA_PREFIX", ""),
		DebugDir:       getEnvOrDefault("PFT_DEBUG_DIR", ""),
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", ""),
	}

	if raw := os.Getenv("PFT_MATCH_THRESHOLD"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, pfterrors.NewConfigError("", "PFT_MATCH_THRESHOLD", err)
		}
		cfg.MatchThreshold = &v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return pfterrors.NewConfigError("", "PFT_LOG_LEVEL", fmt.Errorf("unknown level %q", c.LogLevel))
	}

	if c.OCRLanguage == "" {
		return pfterrors.NewConfigError("", "PFT_OCR_LANGUAGE", fmt.Errorf("must not be empty"))
	}

	if c.MatchThreshold != nil && (*c.MatchThreshold < -1 || *c.MatchThreshold > 1) {
		return pfterrors.NewConfigError("", "PFT_MATCH_THRESHOLD",
			fmt.Errorf("must be between -1 and 1, got %g", *c.MatchThreshold))
	}

	if c.DatabaseURL != "" && !strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") && !strings.Contains(c.DatabaseURL, "=") {
		return pfterrors.NewConfigError("", "DATABASE_URL", fmt.Errorf("not a postgres URL or DSN"))
	}

	return nil
}

// Apply copies environment overrides onto a loaded layout.
func (c *Config) Apply(l *Layout) {
	if c.MatchThreshold != nil {
		l.Match.Threshold = *c.MatchThreshold
	}
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
