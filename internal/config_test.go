package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearTrompoEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TROMPO_API_URL", "TROMPO_REALTIME_URL", "TROMPO_DATA_DIR", "TROMPO_LOG_LEVEL",
		"TROMPO_FILTER_SELF_ECHO", "TROMPO_PING_INTERVAL", "TROMPO_HTTP_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	clearTrompoEnv(t)

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RealtimeURL != DefaultRealtimeURL {
		t.Errorf("RealtimeURL = %q", cfg.RealtimeURL)
	}
	if !cfg.FilterSelfEcho {
		t.Error("FilterSelfEcho should default to true")
	}
	if cfg.PingInterval != DefaultPingInterval {
		t.Errorf("PingInterval = %v", cfg.PingInterval)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("HTTPTimeout should default to none, got %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != LogLevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if filepath.Base(cfg.DBPath()) != DatabaseFileName {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	clearTrompoEnv(t)
	t.Setenv("TROMPO_API_URL", "https://trompo.example/api/")
	t.Setenv("TROMPO_REALTIME_URL", "wss://trompo.example/ws")
	t.Setenv("TROMPO_DATA_DIR", "/tmp/trompo-data")
	t.Setenv("TROMPO_LOG_LEVEL", "debug")
	t.Setenv("TROMPO_FILTER_SELF_ECHO", "false")
	t.Setenv("TROMPO_PING_INTERVAL", "10")
	t.Setenv("TROMPO_HTTP_TIMEOUT", "1m30s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.APIBaseURL != "https://trompo.example/api" {
		t.Errorf("APIBaseURL should drop the trailing slash, got %q", cfg.APIBaseURL)
	}
	if cfg.RealtimeURL != "wss://trompo.example/ws" {
		t.Errorf("RealtimeURL = %q", cfg.RealtimeURL)
	}
	if cfg.DBPath() != filepath.Join("/tmp/trompo-data", DatabaseFileName) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.CacheDir() != filepath.Join("/tmp/trompo-data", "cache") {
		t.Errorf("CacheDir() = %q", cfg.CacheDir())
	}
	if cfg.LogLevel != LogLevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.FilterSelfEcho {
		t.Error("FilterSelfEcho should be disabled")
	}
	if cfg.PingInterval != 10*time.Second {
		t.Errorf("PingInterval = %v", cfg.PingInterval)
	}
	if cfg.HTTPTimeout != 90*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"TROMPO_LOG_LEVEL", "chatty"},
		{"TROMPO_FILTER_SELF_ECHO", "maybe"},
		{"TROMPO_PING_INTERVAL", "soon"},
		{"TROMPO_HTTP_TIMEOUT", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearTrompoEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := ConfigFromEnv(); err == nil {
				t.Errorf("ConfigFromEnv() with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	clearTrompoEnv(t)
	os.Unsetenv("TROMPO_REALTIME_URL")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("TROMPO_REALTIME_URL=ws://from-file:9000/ws\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TROMPO_REALTIME_URL") })

	cfg, err := LoadConfig(envFile)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RealtimeURL != "ws://from-file:9000/ws" {
		t.Errorf("RealtimeURL = %q, want value from .env", cfg.RealtimeURL)
	}
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	clearTrompoEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should not fail, got %v", err)
	}
}

func TestConfig_EnsureDataDir(t *testing.T) {
	cfg := &Config{DataDir: filepath.Join(t.TempDir(), "nested", "data")}
	if err := cfg.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir() error = %v", err)
	}
	if info, err := os.Stat(cfg.DataDir); err != nil || !info.IsDir() {
		t.Errorf("data dir not created: %v", err)
	}
}
