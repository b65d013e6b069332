package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 300, cfg.Store.TTLSeconds)
	assert.Equal(t, 180, cfg.Timeouts.SelectionSeconds)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9191
store:
  backend: sqlite
  sqlitePath: /tmp/pg.db
llm:
  provider: mock
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/tmp/pg.db", cfg.Store.SQLitePath)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	// Untouched sections still carry defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 180, cfg.Timeouts.OTPSeconds)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAYGENT_PORT", "7070")
	t.Setenv("PAYGENT_REDIS_ADDR", "redis:6379")
	t.Setenv("PAYGENT_LLM_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled, "setting a redis addr enables redis")
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
}

func TestSensitiveFieldExpansion(t *testing.T) {
	t.Setenv("GEMINI_KEY", "secret-1")
	path := writeConfig(t, `
llm:
  apiKey: ${GEMINI_KEY}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-1", cfg.LLM.APIKey)
}

func TestExpandEnvVarsUnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${NOT_SET_ANYWHERE}", expandEnvVars("${NOT_SET_ANYWHERE}"))
}
