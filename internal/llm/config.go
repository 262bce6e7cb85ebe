package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures a provider.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// DefaultConfig returns the defaults: small, cheap models and three attempts.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// envBindings maps REPETICIO_LLM_* variables onto config fields.
func envBindings(c *Config) map[string]*string {
	return map[string]*string{
		"REPETICIO_LLM_PROVIDER":         &c.Provider,
		"REPETICIO_LLM_ANTHROPIC_KEY":    &c.Anthropic.APIKey,
		"REPETICIO_LLM_ANTHROPIC_MODEL":  &c.Anthropic.Model,
		"REPETICIO_LLM_OPENAI_KEY":       &c.OpenAI.APIKey,
		"REPETICIO_LLM_OPENAI_MODEL":     &c.OpenAI.Model,
		"REPETICIO_LLM_OPENAI_BASE_URL":  &c.OpenAI.BaseURL,
		"REPETICIO_LLM_GEMINI_KEY":       &c.Gemini.APIKey,
		"REPETICIO_LLM_GEMINI_MODEL":     &c.Gemini.Model,
		"REPETICIO_LLM_OPENROUTER_KEY":   &c.OpenRouter.APIKey,
		"REPETICIO_LLM_OPENROUTER_MODEL": &c.OpenRouter.Model,
	}
}

// ConfigFromEnv overlays REPETICIO_LLM_* variables on the defaults.
// REPETICIO_LLM_TIMEOUT takes a Go duration.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	for key, dst := range envBindings(&cfg) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("REPETICIO_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("REPETICIO_LLM_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// DiscoverConfig looks for the providers' standard API key variables and
// returns a config for the first one found, in the order Anthropic,
// OpenAI, Gemini, OpenRouter.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	candidates := []struct {
		env      string
		provider string
		key      *string
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic.APIKey},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI.APIKey},
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini.APIKey},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter.APIKey},
	}
	for _, p := range candidates {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			*p.key = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Configured reports whether the selected provider has what it needs to
// make requests.
func (c Config) Configured() bool {
	return c.Validate() == nil
}

// Validate checks the selected provider has an API key.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "REPETICIO_LLM_ANTHROPIC_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "REPETICIO_LLM_OPENAI_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "REPETICIO_LLM_GEMINI_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "REPETICIO_LLM_OPENROUTER_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
