package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	ResetEnv()

	t.Setenv("DDX_BACKEND_URL", "http://backend:9000")
	t.Setenv("DDX_ENDPOINT", "/stream")
	t.Setenv("DDX_CHUNK_SIZE", "16")
	t.Setenv("DDX_CONNECT_TIMEOUT", "5s")
	t.Setenv("DDX_LOG_LEVEL", "debug")
	t.Setenv("DDX_CAPTURE_DIR", "/tmp/caps")
	defer ResetEnv()

	env := Env()

	assert.Equal(t, "http://backend:9000", env.BackendURL)
	assert.Equal(t, "/stream", env.Endpoint)
	assert.Equal(t, 16, env.ChunkSize)
	assert.Equal(t, 5*time.Second, env.ConnectTimeout)
	assert.Equal(t, "debug", env.LogLevel)
	assert.Equal(t, "/tmp/caps", env.CaptureDir)
}

func TestEnvDefaults(t *testing.T) {
	ResetEnv()
	for _, k := range []string{"DDX_BACKEND_URL", "DDX_ENDPOINT", "DDX_CHUNK_SIZE", "DDX_CONNECT_TIMEOUT", "DDX_LOG_LEVEL", "DDX_CAPTURE_DIR"} {
		t.Setenv(k, "")
	}
	defer ResetEnv()

	env := Env()

	assert.Equal(t, DefaultBackendURL, env.BackendURL)
	assert.Equal(t, DefaultEndpoint, env.Endpoint)
	assert.Equal(t, DefaultChunkSize, env.ChunkSize)
	assert.Equal(t, DefaultConnectTimeout, env.ConnectTimeout)
	assert.Equal(t, DefaultLogLevel, env.LogLevel)
	assert.Equal(t, GetPaths().Captures, env.CaptureDir)
}

func TestEnvRejectsBadNumbers(t *testing.T) {
	ResetEnv()
	t.Setenv("DDX_CHUNK_SIZE", "0")
	t.Setenv("DDX_CONNECT_TIMEOUT", "soon")
	defer ResetEnv()

	assert.Equal(t, DefaultChunkSize, Env().ChunkSize)
	assert.Equal(t, DefaultConnectTimeout, Env().ConnectTimeout)
}

func TestEnvSingleton(t *testing.T) {
	ResetEnv()
	defer ResetEnv()

	env1 := Env()
	env2 := Env()

	// Should return same instance
	assert.Same(t, env1, env2)
}

func TestGetPaths(t *testing.T) {
	ResetEnv()
	defer ResetEnv()

	p := GetPaths()
	assert.Equal(t, ".ddx", filepath.Base(p.Home))
	assert.Equal(t, filepath.Join(p.Home, "captures"), p.Captures)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}
