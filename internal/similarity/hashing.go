package similarity

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/jonathan/resume-matcher/internal/textnorm"
)

// DefaultEmbeddingDim is the dimension of the local hashing embedder.
const DefaultEmbeddingDim = 384

// HashingEmbedder is a local, deterministic embedding model: content words and
// word bigrams are hashed into a fixed number of signed buckets, weighted
// sublinearly and L2-normalized. It needs no network and is safe for concurrent use.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a hashing embedder with dim buckets.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &HashingEmbedder{dim: dim}
}

// Dim returns the vector dimension.
func (h *HashingEmbedder) Dim() int { return h.dim }

// EmbedTexts embeds every text; it fails only when ctx is done.
func (h *HashingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h *HashingEmbedder) embed(text string) []float32 {
	tokens := textnorm.ContentTokens(text)

	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}

	acc := make([]float64, h.dim)
	for feature, n := range counts {
		sum := xxhash.Sum64String(feature)
		bucket := int(sum % uint64(h.dim))
		weight := 1 + math.Log(float64(n))
		if sum>>63 == 1 {
			weight = -weight
		}
		acc[bucket] += weight
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, h.dim)
	if norm == 0 {
		return vec
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}
