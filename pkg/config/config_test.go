package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "process_middle", cfg.Gateway.Function)
	assert.Equal(t, 30*time.Second, cfg.Gateway.DefaultTimeout)
	assert.Equal(t, 5, cfg.Gateway.CircuitBreaker.FailureThreshold)
	assert.Equal(t, "native", cfg.Gateway.Languages["c"])
	assert.Equal(t, "wasm", cfg.Gateway.Languages["wasm"])
	assert.Equal(t, []string{"python3"}, cfg.Gateway.Interpreters["python"])
	assert.True(t, cfg.Gateway.Wasm.EnableWasi)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Registry.Dir)
	assert.Empty(t, cfg.Manifest)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  function: combine
  default_timeout: 5s
  circuit_breaker:
    failure_threshold: 2
  languages:
    ruby: process
  interpreters:
    ruby: [ruby, --disable-gems]
log:
  level: debug
manifest: /etc/polytree/bridge.yaml
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "combine", cfg.Gateway.Function)
	assert.Equal(t, 5*time.Second, cfg.Gateway.DefaultTimeout)
	assert.Equal(t, 2, cfg.Gateway.CircuitBreaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Gateway.CircuitBreaker.ResetTimeout)
	assert.Equal(t, "process", cfg.Gateway.Languages["ruby"])
	assert.Equal(t, "native", cfg.Gateway.Languages["c"], "file maps merge with defaults")
	assert.Equal(t, []string{"ruby", "--disable-gems"}, cfg.Gateway.Interpreters["ruby"])
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/etc/polytree/bridge.yaml", cfg.Manifest)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
gateway:
  default_timeout: 5s
log:
  level: debug
`)
	t.Setenv("POLYTREE_GATEWAY__DEFAULT_TIMEOUT", "250ms")
	t.Setenv("POLYTREE_GATEWAY__CIRCUIT_BREAKER__FAILURE_THRESHOLD", "9")
	t.Setenv("POLYTREE_GATEWAY__INTERPRETERS__PYTHON", "python3.12")
	t.Setenv("POLYTREE_LOG__LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Gateway.DefaultTimeout)
	assert.Equal(t, 9, cfg.Gateway.CircuitBreaker.FailureThreshold)
	assert.Equal(t, []string{"python3.12"}, cfg.Gateway.Interpreters["python"])
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "gateway:\n  languages:\n    ruby: jvm\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"empty function", "gateway:\n  function: \"\"\n"},
		{"negative timeout", "gateway:\n  default_timeout: -1s\n"},
		{"unknown key", "gateway:\n  retries: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "gateway: [unterminated"))
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".polytree", "config.yaml"), ExpandHome(DefaultConfigPath))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "relative", ExpandHome("relative"))
	assert.Equal(t, "", ExpandHome(""))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "gateway.default_timeout", envKey("POLYTREE_GATEWAY__DEFAULT_TIMEOUT"))
	assert.Equal(t, "manifest", envKey("POLYTREE_MANIFEST"))
}
