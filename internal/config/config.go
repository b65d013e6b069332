package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	phonetic := true
	return Config{
		Server: ServerConfig{
			Port: 8080,
			Bind: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Store: StoreConfig{
			Backend:    "memory",
			SQLitePath: "paygent.db",
			TTLSeconds: 300,
		},
		Upstream: UpstreamConfig{
			PayAPI: PayAPIConfig{
				BaseURL:        "https://pay.sello.uz/api/v1",
				TimeoutSeconds: 30,
			},
			FAQ: FAQConfig{
				ProjectID:      "sello",
				TimeoutSeconds: 30,
			},
		},
		LLM: LLMConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
			MaxTokens: 2048,
		},
		Matcher: MatcherConfig{
			MinScore: 0.60,
			Phonetic: &phonetic,
		},
		Timeouts: TimeoutConfig{
			SelectionSeconds: 180,
			OTPSeconds:       180,
		},
	}
}
