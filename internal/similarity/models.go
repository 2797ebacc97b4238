package similarity

import (
	"github.com/jonathan/resume-matcher/internal/llm"
)

// Models is the process-wide model context: the embedding model and the vectorizer
// configuration. It is built once at startup and shared read-only by every request.
type Models struct {
	embedder   llm.Embedder
	vectorizer Vectorizer
}

// NewModels creates the model context. A nil embedder selects the local hashing embedder.
func NewModels(embedder llm.Embedder, vectorizer Vectorizer) *Models {
	if embedder == nil {
		embedder = NewHashingEmbedder(DefaultEmbeddingDim)
	}
	if vectorizer.NGramMax == 0 {
		vectorizer = NewVectorizer(vectorizer.MaxFeatures, 0)
	}
	return &Models{embedder: embedder, vectorizer: vectorizer}
}

// Embedder returns the embedding model.
func (m *Models) Embedder() llm.Embedder { return m.embedder }

// Vectorizer returns the TF-IDF vectorizer configuration.
func (m *Models) Vectorizer() Vectorizer { return m.vectorizer }

// Signals returns the four standard signals bound to this model context.
func (m *Models) Signals() []Signal {
	return []Signal{
		NewSemanticSignal(m.embedder),
		CoverageSignal{},
		NewLexicalSignal(m.vectorizer),
		OverlapSignal{},
	}
}
