// Package config provides configuration loading and validation for the
// matcher CLI and HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/provider-matcher/internal/llm"
)

// Default values applied when neither the config file nor the environment
// provides a setting.
const (
	DefaultDirectorsSource       = "Medical_List.csv"
	DefaultNursesSource          = "hubspot_moxie.csv"
	DefaultPort                  = 8080
	DefaultRequestTimeoutSeconds = 90
	DefaultOrganization          = "Moxie"
)

// Config represents the application configuration that can be loaded from a
// JSON file and the environment. All fields are optional.
type Config struct {
	// Sources: local paths or s3://bucket/key locations
	DirectorsSource string `json:"directors_source,omitempty"`
	NursesSource    string `json:"nurses_source,omitempty"`
	AWSRegion       string `json:"aws_region,omitempty"`

	// LLM
	Provider              string   `json:"provider,omitempty"` // gemini or openai
	Model                 string   `json:"model,omitempty"`
	APIKey                string   `json:"api_key,omitempty"`
	BaseURL               string   `json:"base_url,omitempty"`
	MaxOutputTokens       int      `json:"max_output_tokens,omitempty"`
	Temperature           *float32 `json:"temperature,omitempty"` // nil means default; 0 is honored
	RequestTimeoutSeconds int      `json:"request_timeout_seconds,omitempty"`

	// Presentation
	Organization string `json:"organization,omitempty"`

	// Server
	Port           int      `json:"port,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DirectorsSource:       DefaultDirectorsSource,
		NursesSource:          DefaultNursesSource,
		Provider:              string(llm.ProviderGemini),
		MaxOutputTokens:       llm.DefaultMaxOutputTokens,
		Temperature:           llm.Float32(llm.DefaultTemperature),
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		Organization:          DefaultOrganization,
		Port:                  DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration from environment variables. Unset
// variables leave the field at its zero value.
func FromEnv() (Config, error) {
	cfg := Config{
		DirectorsSource: os.Getenv("DIRECTORS_SOURCE"),
		NursesSource:    os.Getenv("NURSES_SOURCE"),
		AWSRegion:       os.Getenv("AWS_REGION"),
		Provider:        os.Getenv("LLM_PROVIDER"),
		Model:           os.Getenv("LLM_MODEL"),
		BaseURL:         os.Getenv("LLM_BASE_URL"),
		Organization:    os.Getenv("MATCHER_ORGANIZATION"),
	}

	var err error
	if cfg.Port, err = envInt("PORT"); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeoutSeconds, err = envInt("LLM_TIMEOUT_SECONDS"); err != nil {
		return Config{}, err
	}
	if cfg.MaxOutputTokens, err = envInt("LLM_MAX_OUTPUT_TOKENS"); err != nil {
		return Config{}, err
	}
	if cfg.Temperature, err = envFloat32("LLM_TEMPERATURE"); err != nil {
		return Config{}, err
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	return cfg, nil
}

// Resolve builds the effective configuration: values from the file at path
// (if any) win over the environment, which wins over the defaults.
func Resolve(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	merged := env.MergeWithDefaults(Defaults())

	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = file.MergeWithDefaults(merged)
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if _, err := llm.ParseProvider(c.Provider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'request_timeout_seconds' must be non-negative")
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("config error: 'max_output_tokens' must be non-negative")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("config error: 'temperature' must be between 0 and 2, got %g", *c.Temperature)
	}
	if strings.HasPrefix(c.DirectorsSource, "s3://") || strings.HasPrefix(c.NursesSource, "s3://") {
		if c.AWSRegion == "" {
			return fmt.Errorf("config error: 'aws_region' is required for s3:// sources")
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DirectorsSource == "" {
		result.DirectorsSource = defaults.DirectorsSource
	}
	if result.NursesSource == "" {
		result.NursesSource = defaults.NursesSource
	}
	if result.AWSRegion == "" {
		result.AWSRegion = defaults.AWSRegion
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.Organization == "" {
		result.Organization = defaults.Organization
	}
	if len(result.AllowedOrigins) == 0 {
		result.AllowedOrigins = defaults.AllowedOrigins
	}

	if result.MaxOutputTokens == 0 {
		result.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}
	if result.RequestTimeoutSeconds == 0 {
		result.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// LLMConfig returns the client configuration for the selected provider.
func (c *Config) LLMConfig() *llm.Config {
	provider, err := llm.ParseProvider(c.Provider)
	if err != nil {
		provider = llm.ProviderGemini
	}
	return (&llm.Config{
		Provider:        provider,
		Model:           c.Model,
		MaxOutputTokens: c.MaxOutputTokens,
		Temperature:     c.Temperature,
		BaseURL:         c.BaseURL,
	}).WithDefaults()
}

// ResolveAPIKey returns the configured key, falling back to the provider's
// environment variable (GEMINI_API_KEY or OPENAI_API_KEY).
func (c *Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return strings.TrimSpace(os.Getenv(llm.APIKeyEnv(c.LLMConfig().Provider)))
}

// RequestTimeout returns the LLM call timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return DefaultRequestTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func envInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return value, nil
}

// envFloat32 returns nil when key is unset.
func envFloat32(key string) (*float32, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", key, err)
	}
	return llm.Float32(float32(value)), nil
}
