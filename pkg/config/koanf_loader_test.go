package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProcessConfig_FileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
kv:
  url: redis://localhost:6379/0
  max_connections: 25
breaker:
  failure_threshold: 8
  open_timeout: 45s
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadProcessConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "redis://localhost:6379/0", cfg.KV.URL)
	assert.Equal(t, 25, cfg.KV.MaxConnections)
	// Overflow untouched by the file, keeps the package default.
	assert.Equal(t, 20, cfg.KV.Overflow)
	assert.Equal(t, 8, cfg.Breaker.FailureThreshold)
	assert.Equal(t, "45s", cfg.Breaker.OpenTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	// Timeouts section absent from the file, keeps package defaults.
	assert.Equal(t, "500ms", cfg.Timeouts.AnalyzerSoftDeadline)
}

func TestLoadProcessConfig_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("kv:\n  url: redis://file:6379/0\n"), 0644))

	os.Setenv("SAQSHY_KV__URL", "redis://env:6379/0")
	defer os.Unsetenv("SAQSHY_KV__URL")

	cfg, err := LoadProcessConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "redis://env:6379/0", cfg.KV.URL)
}

func TestLoadProcessConfig_RejectsMissingRequiredField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: info\n"), 0644))

	_, err := LoadProcessConfig(configPath)
	assert.Error(t, err)
}

func TestLoadProcessConfig_RejectsInvalidLLMProvider(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yamlContent := `
kv:
  url: redis://localhost:6379/0
llm:
  provider: not-a-real-provider
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	_, err := LoadProcessConfig(configPath)
	assert.Error(t, err)
}

func TestLoadProcessConfig_NonexistentFile(t *testing.T) {
	_, err := LoadProcessConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
