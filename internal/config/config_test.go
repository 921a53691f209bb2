package config

import (
	"os"
	"path/filepath"
	"testing"

	pfterrors "github.com/George-Forgey/PFT-Reader/internal/errors"
)

var envKeys = []string{
	"PFT_LAYOUT_PATH", "PFT_LOG_LEVEL", "PFT_OCR_LANGUAGE", "PFT_TESSDATA_PREFIX",
	"PFT_MATCH_THRESHOLD", "PFT_DEBUG_DIR", "DATABASE_URL",
}

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("OCRLanguage = %q, want eng", cfg.OCRLanguage)
	}
	if cfg.MatchThreshold != nil {
		t.Errorf("MatchThreshold = %v, want nil", *cfg.MatchThreshold)
	}
	if cfg.DatabaseURL != "" || cfg.DebugDir != "" || cfg.LayoutPath != "" {
		t.Errorf("Expected empty optional settings, got %+v", cfg)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "PFT_OCR_LANGUAGE=deu\nPFT_MATCH_THRESHOLD=0.35\nPFT_LOG_LEVEL=DEBUG\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("PFT_LAYOUT_PATH", "/etc/pft/layout.json")

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OCRLanguage != "deu" {
		t.Errorf("OCRLanguage = %q, want deu", cfg.OCRLanguage)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MatchThreshold == nil || *cfg.MatchThreshold != 0.35 {
		t.Errorf("MatchThreshold = %v, want 0.35", cfg.MatchThreshold)
	}
	if cfg.LayoutPath != "/etc/pft/layout.json" {
		t.Errorf("LayoutPath = %q", cfg.LayoutPath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad threshold", "PFT_MATCH_THRESHOLD", "high"},
		{"threshold out of range", "PFT_MATCH_THRESHOLD", "1.5"},
		{"bad level", "PFT_LOG_LEVEL", "verbose"},
		{"bad database url", "DATABASE_URL", "mysql://localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !pfterrors.HasCode(err, pfterrors.ErrorConfig) {
				t.Errorf("Expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}

func TestConfig_Apply(t *testing.T) {
	l, err := ParseLayout([]byte(minimalLayout))
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}

	(&Config{}).Apply(l)
	if l.Match.Threshold != 0.2 {
		t.Errorf("Threshold changed without override: %g", l.Match.Threshold)
	}

	v := 0.5
	(&Config{MatchThreshold: &v}).Apply(l)
	if l.Match.Threshold != 0.5 {
		t.Errorf("Threshold = %g, want 0.5", l.Match.Threshold)
	}
}
