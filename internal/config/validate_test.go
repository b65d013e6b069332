package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDefaultsWithKey(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.APIKey = "k"
	assert.Empty(t, Validate(&cfg))
}

func TestValidateCatchesBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 99999
	cfg.Logging.Level = "loud"
	cfg.Store.Backend = "etcd"
	cfg.LLM.Provider = "gemini" // no API key
	cfg.Matcher.MinScore = 1.5

	issues := Validate(&cfg)
	paths := make([]string, len(issues))
	for i, is := range issues {
		paths[i] = is.Path
	}
	assert.Contains(t, paths, "server.port")
	assert.Contains(t, paths, "logging.level")
	assert.Contains(t, paths, "store.backend")
	assert.Contains(t, paths, "llm.apiKey")
	assert.Contains(t, paths, "matcher.minScore")
}

func TestValidateRedisBackendNeedsRedis(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Provider = "mock"
	cfg.Store.Backend = "redis"
	cfg.Redis.Enabled = false

	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Equal(t, "store.backend", issues[0].Path)
}
