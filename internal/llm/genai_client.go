package llm

import (
	"context"
	"fmt"
	"strings"

	genaisdk "google.golang.org/genai"
)

// GenAIClient implements Client on top of the unified google.golang.org/genai SDK.
type GenAIClient struct {
	client *genaisdk.Client
	config *Config
}

// NewGenAIClient creates a client for the Gemini API backend of the genai SDK.
func NewGenAIClient(ctx context.Context, config *Config, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genaisdk.NewClient(ctx, &genaisdk.ClientConfig{
		APIKey:  apiKey,
		Backend: genaisdk.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIClient{client: client, config: config}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier, opts ...GenerateOption) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	o := ResolveOptions(opts...)
	cfg := &genaisdk.GenerateContentConfig{
		Temperature: genaisdk.Ptr(o.Temperature),
	}
	if o.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = o.MaxOutputTokens
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelName, genaisdk.Text(prompt), cfg)
	if err != nil {
		return "", Classify(fmt.Errorf("failed to generate content: %w", err))
	}
	if resp == nil {
		return "", &ServiceError{Kind: KindMalformed, Message: "empty response"}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &ServiceError{Kind: KindMalformed, Message: "no text parts in response"}
	}
	return text, nil
}

// EmbedTexts embeds texts with the configured embedding model.
func (c *GenAIClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.config.GetEmbeddingModel()

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		contents := make([]*genaisdk.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genaisdk.Text(text)...)
		}

		res, err := c.client.Models.EmbedContent(ctx, model, contents, nil)
		if err != nil {
			return nil, Classify(fmt.Errorf("failed to embed content: %w", err))
		}
		if res == nil || len(res.Embeddings) != end-start {
			return nil, &ServiceError{Kind: KindMalformed, Message: "embedding count does not match input"}
		}
		for _, e := range res.Embeddings {
			vectors = append(vectors, e.Values)
		}
	}

	return vectors, nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the genai SDK holds no resources that need releasing.
func (c *GenAIClient) Close() error {
	return nil
}
