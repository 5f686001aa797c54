// Package config provides centralized configuration management.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DDXEnv holds all ddx environment variables.
type DDXEnv struct {
	// BackendURL is the orchestration backend base URL (DDX_BACKEND_URL)
	BackendURL string

	// Endpoint is the streaming diagnosis path (DDX_ENDPOINT)
	Endpoint string

	// ChunkSize is the read buffer size in bytes (DDX_CHUNK_SIZE)
	ChunkSize int

	// ConnectTimeout bounds the wait for response headers (DDX_CONNECT_TIMEOUT)
	ConnectTimeout time.Duration

	// LogLevel is the minimum structured log level (DDX_LOG_LEVEL)
	LogLevel string

	// CaptureDir is where raw feeds are recorded (DDX_CAPTURE_DIR)
	CaptureDir string
}

const (
	DefaultBackendURL     = "http://localhost:8000"
	DefaultEndpoint       = "/api/diagnose"
	DefaultChunkSize      = 4096
	DefaultConnectTimeout = 30 * time.Second
	DefaultLogLevel       = "warn"
)

var (
	env     *DDXEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *DDXEnv {
	envOnce.Do(func() {
		env = &DDXEnv{
			BackendURL:     getEnvDefault("DDX_BACKEND_URL", DefaultBackendURL),
			Endpoint:       getEnvDefault("DDX_ENDPOINT", DefaultEndpoint),
			ChunkSize:      getEnvInt("DDX_CHUNK_SIZE", DefaultChunkSize),
			ConnectTimeout: getEnvDuration("DDX_CONNECT_TIMEOUT", DefaultConnectTimeout),
			LogLevel:       getEnvDefault("DDX_LOG_LEVEL", DefaultLogLevel),
			CaptureDir:     getEnvDefault("DDX_CAPTURE_DIR", GetPaths().Captures),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
	pathsOnce = sync.Once{}
	paths = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// Paths holds standard ddx directory paths.
type Paths struct {
	// Home is the ddx home directory (~/.ddx)
	Home string

	// Captures is the default capture directory (~/.ddx/captures)
	Captures string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		ddxHome := filepath.Join(home, ".ddx")

		paths = &Paths{
			Home:     ddxHome,
			Captures: filepath.Join(ddxHome, "captures"),
		}
	})
	return paths
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
