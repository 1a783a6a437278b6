package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvLogLevel, EnvS3Region, EnvS3Endpoint, EnvAccessKey, EnvSecretKey} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
window:
  width: 800
  height: 600
cubeSize: 3
listen: ":8081"
watch: true
`), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, float32(3), cfg.CubeSize)
	assert.Equal(t, ":8081", cfg.Listen)
	assert.True(t, cfg.Watch)
	assert.Equal(t, float32(75), cfg.Camera.FOV)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CUBE_S3_ENDPOINT=http://minio:9000\nCUBE_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv(EnvS3Endpoint, "")
	t.Setenv(EnvLogLevel, "")
	// godotenv does not override variables that are already set, even empty ones.
	os.Unsetenv(EnvS3Endpoint)
	os.Unsetenv(EnvLogLevel)

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", cfg.S3.Endpoint)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = Load("", filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.CubeSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Camera.Far = 0.01
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [1, 2"), 0o644))
	_, err := Load(path, "")
	assert.Error(t, err)
}
