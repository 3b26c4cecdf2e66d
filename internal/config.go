package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL   = "http://localhost:5300/api"
	DefaultRealtimeURL  = "ws://localhost:5300/ws"
	DefaultPingInterval = 25 * time.Second
	DatabaseFileName    = "trompo.db"
)

// Config holds client settings resolved from .env, the environment and flags
type Config struct {
	APIBaseURL     string
	RealtimeURL    string
	DataDir        string
	LogLevel       LogLevel
	FilterSelfEcho bool
	PingInterval   time.Duration
	// HTTPTimeout of zero means no timeout
	HTTPTimeout time.Duration
}

// LoadConfig reads an optional .env file and then the TROMPO_* variables.
// A missing .env is not an error.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		LogWarn("Could not load env file: %v", err)
	}
	return ConfigFromEnv()
}

// ConfigFromEnv builds a Config from the current environment only
func ConfigFromEnv() (*Config, error) {
	level, err := ParseLogLevel(os.Getenv("TROMPO_LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	echo, err := parseBoolEnv("TROMPO_FILTER_SELF_ECHO", true)
	if err != nil {
		return nil, err
	}

	ping, err := parseDurationEnv("TROMPO_PING_INTERVAL", DefaultPingInterval)
	if err != nil {
		return nil, err
	}

	timeout, err := parseDurationEnv("TROMPO_HTTP_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	dataDir := getEnvOrDefault("TROMPO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	return &Config{
		APIBaseURL:     strings.TrimRight(getEnvOrDefault("TROMPO_API_URL", DefaultAPIBaseURL), "/"),
		RealtimeURL:    getEnvOrDefault("TROMPO_REALTIME_URL", DefaultRealtimeURL),
		DataDir:        dataDir,
		LogLevel:       level,
		FilterSelfEcho: echo,
		PingInterval:   ping,
		HTTPTimeout:    timeout,
	}, nil
}

// DBPath is the session database location
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DatabaseFileName)
}

// CacheDir is where unread lists and transcripts are cached
func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}

// EnsureDataDir creates the data directory if needed
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return &StorageError{Path: c.DataDir, Op: "mkdir", Err: err}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trompo"
	}
	return filepath.Join(home, ".trompo")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationEnv accepts Go durations ("30s") or a bare number of seconds
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
		}
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}
