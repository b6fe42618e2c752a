// Package llm wraps the hosted text-completion providers used for matching.
// Every call is single-turn: one system persona plus one user prompt.
package llm

import (
	"fmt"
	"strings"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI chat completions provider
	ProviderOpenAI Provider = "openai"
)

const (
	// DefaultMaxOutputTokens bounds the reply length.
	DefaultMaxOutputTokens = 4000
	// DefaultTemperature keeps sampling near-deterministic.
	DefaultTemperature float32 = 0.2

	defaultGeminiModel = "gemini-2.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

// Config holds the provider and sampling settings for a client.
type Config struct {
	Provider        Provider `json:"provider"`
	Model           string   `json:"model"`
	MaxOutputTokens int      `json:"max_output_tokens"`
	// Temperature is nil when unset; zero is a valid setting.
	Temperature *float32 `json:"temperature,omitempty"`
	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty"`
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultConfigFor(ProviderGemini)
}

// DefaultConfigFor returns the defaults for a provider.
func DefaultConfigFor(provider Provider) *Config {
	model := defaultGeminiModel
	if provider == ProviderOpenAI {
		model = defaultOpenAIModel
	}
	return &Config{
		Provider:        provider,
		Model:           model,
		MaxOutputTokens: DefaultMaxOutputTokens,
		Temperature:     Float32(DefaultTemperature),
	}
}

// Float32 returns a pointer to v.
func Float32(v float32) *float32 {
	return &v
}

// ParseProvider converts a provider name into a Provider. Empty means Gemini.
func ParseProvider(name string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(name))) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("unsupported LLM provider %q (want gemini or openai)", name)
	}
}

// APIKeyEnv returns the environment variable holding the provider credential.
func APIKeyEnv(provider Provider) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// WithDefaults returns a copy with zero fields filled from the provider defaults.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.Provider == "" {
		out.Provider = ProviderGemini
	}
	defaults := DefaultConfigFor(out.Provider)
	if out.Model == "" {
		out.Model = defaults.Model
	}
	if out.MaxOutputTokens <= 0 {
		out.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if out.Temperature == nil {
		out.Temperature = defaults.Temperature
	}
	return &out
}

// WithModel returns a new Config using model.
func (c *Config) WithModel(model string) *Config {
	out := *c.WithDefaults()
	out.Model = model
	return &out
}
