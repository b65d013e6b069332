// Package config loads and validates the paygent configuration from YAML,
// environment overrides, and defaults.
package config

// Config is the root configuration for paygent.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Redis    RedisConfig    `yaml:"redis,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Upstream UpstreamConfig `yaml:"upstream,omitempty"`
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Matcher  MatcherConfig  `yaml:"matcher,omitempty"`
	Timeouts TimeoutConfig  `yaml:"timeouts,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket front door.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // silent|fatal|error|warn|info|debug|trace
	Style string `yaml:"style,omitempty"` // pretty|json
}

// RedisConfig points at the shared Redis instance backing the event bus
// and, optionally, the session store.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// StoreConfig selects the session credential store backend.
type StoreConfig struct {
	Backend    string `yaml:"backend,omitempty"` // memory|sqlite|redis
	SQLitePath string `yaml:"sqlitePath,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds,omitempty"`
}

// UpstreamConfig holds the external services paygent calls.
type UpstreamConfig struct {
	PayAPI PayAPIConfig `yaml:"payapi,omitempty"`
	FAQ    FAQConfig    `yaml:"faq,omitempty"`
}

// PayAPIConfig points at the payment gateway.
type PayAPIConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// FAQConfig points at the retrieval service.
type FAQConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	Token          string `yaml:"token,omitempty"`
	ProjectID      string `yaml:"projectId,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // gemini|mock
	APIKey      string   `yaml:"apiKey,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	ExtraPrompt string   `yaml:"extraPrompt,omitempty"`
}

// MatcherConfig tunes recipient name matching.
type MatcherConfig struct {
	MinScore float64 `yaml:"minScore,omitempty"`
	Phonetic *bool   `yaml:"phonetic,omitempty"`
}

// TimeoutConfig bounds the human-input waits.
type TimeoutConfig struct {
	SelectionSeconds int `yaml:"selectionSeconds,omitempty"`
	OTPSeconds       int `yaml:"otpSeconds,omitempty"`
}
