package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so keys and passwords can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Redis.Password = expandEnvVars(cfg.Redis.Password)
	cfg.LLM.APIKey = expandEnvVars(cfg.LLM.APIKey)
	cfg.Upstream.FAQ.Token = expandEnvVars(cfg.Upstream.FAQ.Token)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			expandSensitiveFields(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = def.Logging.Style
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = def.Redis.Addr
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = def.Store.SQLitePath
	}
	if cfg.Store.TTLSeconds == 0 {
		cfg.Store.TTLSeconds = def.Store.TTLSeconds
	}
	if cfg.Upstream.PayAPI.BaseURL == "" {
		cfg.Upstream.PayAPI.BaseURL = def.Upstream.PayAPI.BaseURL
	}
	if cfg.Upstream.PayAPI.TimeoutSeconds == 0 {
		cfg.Upstream.PayAPI.TimeoutSeconds = def.Upstream.PayAPI.TimeoutSeconds
	}
	if cfg.Upstream.FAQ.ProjectID == "" {
		cfg.Upstream.FAQ.ProjectID = def.Upstream.FAQ.ProjectID
	}
	if cfg.Upstream.FAQ.TimeoutSeconds == 0 {
		cfg.Upstream.FAQ.TimeoutSeconds = def.Upstream.FAQ.TimeoutSeconds
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.Matcher.MinScore == 0 {
		cfg.Matcher.MinScore = def.Matcher.MinScore
	}
	if cfg.Matcher.Phonetic == nil {
		cfg.Matcher.Phonetic = def.Matcher.Phonetic
	}
	if cfg.Timeouts.SelectionSeconds == 0 {
		cfg.Timeouts.SelectionSeconds = def.Timeouts.SelectionSeconds
	}
	if cfg.Timeouts.OTPSeconds == 0 {
		cfg.Timeouts.OTPSeconds = def.Timeouts.OTPSeconds
	}
}

// applyEnvOverrides reads PAYGENT_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAYGENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PAYGENT_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("PAYGENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PAYGENT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("PAYGENT_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PAYGENT_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("PAYGENT_PAYAPI_URL"); v != "" {
		cfg.Upstream.PayAPI.BaseURL = v
	}
	if v := os.Getenv("PAYGENT_FAQ_URL"); v != "" {
		cfg.Upstream.FAQ.BaseURL = v
	}
	if v := os.Getenv("PAYGENT_FAQ_TOKEN"); v != "" {
		cfg.Upstream.FAQ.Token = v
	}
	if v := os.Getenv("PAYGENT_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("PAYGENT_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("PAYGENT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
}
