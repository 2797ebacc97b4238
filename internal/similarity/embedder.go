package similarity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonathan/resume-matcher/internal/llm"
)

// FallbackEmbedder embeds with a remote model and switches to a local embedder
// for any call the remote model fails. Every vector of one call comes from the
// same model, so the semantic signal never compares vectors of different spaces.
type FallbackEmbedder struct {
	Primary  llm.Embedder
	Fallback llm.Embedder
	Logger   *slog.Logger
	// OnFallback is called once per call served by Fallback
	OnFallback func()
}

// EmbedTexts implements llm.Embedder.
func (f *FallbackEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := f.Primary.EmbedTexts(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil, err
	}

	if f.Logger != nil {
		f.Logger.Warn("remote embedding failed, using local embedder", slog.Any("error", err))
	}
	if f.OnFallback != nil {
		f.OnFallback()
	}
	return f.Fallback.EmbedTexts(ctx, texts)
}
