package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openai", "anthropic", "gemini", "openrouter", "mock"
	Provider string

	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional, for OpenAI-compatible gateways.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "openai/gpt-4o-mini"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the configuration used when nothing is set.
// OpenAI with gpt-4o-mini is the default provider.
func DefaultConfig() Config {
	return Config{
		Provider:   "openai",
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "openai/gpt-4o-mini"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// ConfigFromEnv builds a Config from EXAMTRAINING_* environment variables.
// When EXAMTRAINING_LLM_PROVIDER is unset the provider is discovered from
// the standard API key variables.
func ConfigFromEnv() Config {
	cfg, ok := DiscoverConfig()
	if !ok {
		cfg = DefaultConfig()
	}

	setEnv(&cfg.Provider, "EXAMTRAINING_LLM_PROVIDER")

	setEnv(&cfg.OpenAI.APIKey, "EXAMTRAINING_OPENAI_API_KEY")
	setEnv(&cfg.OpenAI.Model, "EXAMTRAINING_OPENAI_MODEL")
	setEnv(&cfg.OpenAI.BaseURL, "EXAMTRAINING_OPENAI_BASE_URL")

	setEnv(&cfg.Anthropic.APIKey, "EXAMTRAINING_ANTHROPIC_API_KEY")
	setEnv(&cfg.Anthropic.Model, "EXAMTRAINING_ANTHROPIC_MODEL")

	setEnv(&cfg.Gemini.APIKey, "EXAMTRAINING_GEMINI_API_KEY")
	setEnv(&cfg.Gemini.Model, "EXAMTRAINING_GEMINI_MODEL")

	setEnv(&cfg.OpenRouter.APIKey, "EXAMTRAINING_OPENROUTER_API_KEY")
	setEnv(&cfg.OpenRouter.Model, "EXAMTRAINING_OPENROUTER_MODEL")

	if v := os.Getenv("EXAMTRAINING_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig probes the standard API key variables in priority order
// (OpenAI, Anthropic, Gemini, OpenRouter) and returns a Config for the
// first provider whose key is found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case "openai":
		key, env = c.OpenAI.APIKey, "EXAMTRAINING_OPENAI_API_KEY"
	case "anthropic":
		key, env = c.Anthropic.APIKey, "EXAMTRAINING_ANTHROPIC_API_KEY"
	case "gemini":
		key, env = c.Gemini.APIKey, "EXAMTRAINING_GEMINI_API_KEY"
	case "openrouter":
		key, env = c.OpenRouter.APIKey, "EXAMTRAINING_OPENROUTER_API_KEY"
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider: %w", env, c.Provider, ErrDisabled)
	}
	return nil
}
