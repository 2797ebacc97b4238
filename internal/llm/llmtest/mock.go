// Package llmtest provides test doubles for the llm package interfaces.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/resume-matcher/internal/llm"
)

// Call records one GenerateContent invocation.
type Call struct {
	Prompt  string
	Tier    llm.ModelTier
	Options llm.GenerateOptions
}

// MockClient implements llm.EmbeddingClient for testing
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier, opts llm.GenerateOptions) (string, error)
	EmbedTextsFunc      func(ctx context.Context, texts []string) ([][]float32, error)
	GetModelFunc        func(tier llm.ModelTier) string
	CloseFunc           func() error

	mu    sync.Mutex
	calls []Call
}

// GenerateContent records the call and delegates to GenerateContentFunc.
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier, opts ...llm.GenerateOption) (string, error) {
	o := llm.ResolveOptions(opts...)
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, Tier: tier, Options: o})
	m.mu.Unlock()

	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier, o)
	}
	return "", nil
}

// EmbedTexts delegates to EmbedTextsFunc.
func (m *MockClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// GetModel returns the model name for a tier.
func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

// Close releases nothing unless CloseFunc is set.
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns a copy of the recorded GenerateContent calls.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
