package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrMissingAPIKey is returned when no provider credential is configured.
var ErrMissingAPIKey = errors.New("LLM API key is not configured")

// Request is one single-turn completion request.
type Request struct {
	System          string
	Prompt          string
	MaxOutputTokens int
	// Temperature overrides the client's configured temperature when set.
	Temperature *float32
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateJSON sends the request and returns the reply text exactly as
	// the provider produced it.
	GenerateJSON(ctx context.Context, req Request) (string, error)
	// Model returns the provider model name
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	config = config.WithDefaults()
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	switch config.Provider {
	case ProviderOpenAI:
		client, err := NewOpenAIClient(config, apiKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, config, apiKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config.WithDefaults(),
	}, nil
}

// GenerateJSON generates a JSON reply for a single-turn request.
func (c *GeminiClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(sampling(req.Temperature, c.config.Temperature))
	model.SetMaxOutputTokens(int32(limit(req.MaxOutputTokens, c.config.MaxOutputTokens)))
	model.ResponseMIMEType = "application/json"
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.config.Model
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response (finish reason: %s)", candidate.FinishReason)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return b.String(), nil
}

// sampling prefers the request's temperature; zero is a valid setting.
func sampling(requested, fallback *float32) float32 {
	switch {
	case requested != nil:
		return *requested
	case fallback != nil:
		return *fallback
	default:
		return DefaultTemperature
	}
}

func limit(requested, fallback int) int {
	if requested > 0 {
		return requested
	}
	return fallback
}
