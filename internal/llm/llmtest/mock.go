// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/provider-matcher/internal/llm"
)

// MockClient implements llm.Client for testing. Calls are recorded.
type MockClient struct {
	GenerateJSONFunc func(ctx context.Context, req llm.Request) (string, error)
	ModelName        string

	mu       sync.Mutex
	requests []llm.Request
}

// GenerateJSON records req and delegates to GenerateJSONFunc, returning an
// empty match list when unset.
func (m *MockClient) GenerateJSON(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, req)
	}
	return `{"matches": []}`, nil
}

// Model returns ModelName or "mock-model".
func (m *MockClient) Model() string {
	if m.ModelName != "" {
		return m.ModelName
	}
	return "mock-model"
}

// Close is a no-op.
func (m *MockClient) Close() error {
	return nil
}

// Requests returns a copy of the recorded requests.
func (m *MockClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// Reply returns a GenerateJSONFunc that always answers with reply.
func Reply(reply string) func(context.Context, llm.Request) (string, error) {
	return func(context.Context, llm.Request) (string, error) {
		return reply, nil
	}
}
