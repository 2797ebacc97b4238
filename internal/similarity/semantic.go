package similarity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/textnorm"
)

// minSentenceChars is the trimmed length a sentence must exceed to be embedded.
const minSentenceChars = 20

// SemanticSignal compares the mean sentence embeddings of both documents.
type SemanticSignal struct {
	embedder llm.Embedder
}

// NewSemanticSignal creates the semantic signal over embedder.
func NewSemanticSignal(embedder llm.Embedder) *SemanticSignal {
	return &SemanticSignal{embedder: embedder}
}

// Name returns the signal name.
func (s *SemanticSignal) Name() string { return SignalSemantic }

// Score embeds the sentences of each document, averages them per document and
// returns the cosine of the two means, bounded to [0,1].
func (s *SemanticSignal) Score(ctx context.Context, in Input) (float64, error) {
	if s.embedder == nil {
		return NeutralValue, errors.New("no embedder configured")
	}

	resumeSentences := embeddableSentences(in.Resume)
	jobSentences := embeddableSentences(in.Job)
	if len(resumeSentences) == 0 || len(jobSentences) == 0 {
		return NeutralValue, ErrNoEvidence
	}

	texts := make([]string, 0, len(resumeSentences)+len(jobSentences))
	texts = append(texts, resumeSentences...)
	texts = append(texts, jobSentences...)

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return NeutralValue, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return NeutralValue, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}

	resumeMean, err := meanVector(vectors[:len(resumeSentences)])
	if err != nil {
		return NeutralValue, err
	}
	jobMean, err := meanVector(vectors[len(resumeSentences):])
	if err != nil {
		return NeutralValue, err
	}

	sim, err := cosine(resumeMean, jobMean)
	if err != nil {
		return NeutralValue, err
	}
	return clamp01(sim), nil
}

// embeddableSentences returns the sentences longer than minSentenceChars, or the
// whole trimmed text when none qualifies.
func embeddableSentences(text string) []string {
	sentences := textnorm.SentencesLongerThan(text, minSentenceChars)
	if len(sentences) > 0 {
		return sentences
	}
	if whole := strings.TrimSpace(text); whole != "" {
		return []string{whole}
	}
	return nil
}
