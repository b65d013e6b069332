package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	validBackends := []string{"memory", "sqlite", "redis"}
	if cfg.Store.Backend != "" && !slices.Contains(validBackends, cfg.Store.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "store.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Store.Backend),
		})
	}
	if cfg.Store.Backend == "redis" && !cfg.Redis.Enabled {
		issues = append(issues, ValidationIssue{
			Path:    "store.backend",
			Message: "redis store backend requires redis.enabled: true",
		})
	}
	if cfg.Store.TTLSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "store.ttlSeconds",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Store.TTLSeconds),
		})
	}

	validProviders := []string{"gemini", "mock"}
	if cfg.LLM.Provider != "" && !slices.Contains(validProviders, cfg.LLM.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "llm.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.LLM.Provider),
		})
	}
	if cfg.LLM.Provider == "gemini" && cfg.LLM.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "llm.apiKey",
			Message: "gemini provider requires an API key",
		})
	}

	if cfg.Matcher.MinScore < 0 || cfg.Matcher.MinScore > 1 {
		issues = append(issues, ValidationIssue{
			Path:    "matcher.minScore",
			Message: fmt.Sprintf("must be within [0,1], got %g", cfg.Matcher.MinScore),
		})
	}

	if cfg.Timeouts.SelectionSeconds < 0 || cfg.Timeouts.OTPSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "timeouts",
			Message: "timeouts must be non-negative",
		})
	}

	return issues
}
