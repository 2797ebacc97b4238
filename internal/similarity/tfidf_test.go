package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorizer_Analyze(t *testing.T) {
	v := NewVectorizer(1000, 3)
	terms := v.Analyze("Python developers build the APIs")

	// "the" is a stopword and is removed before n-grams are formed
	assert.Equal(t, []string{
		"python", "developers", "build", "apis",
		"python developers", "developers build", "build apis",
		"python developers build", "developers build apis",
	}, terms)
}

func TestVectorizer_FitTransform_SmoothIDF(t *testing.T) {
	v := NewVectorizer(1000, 1)
	vectors, err := v.FitTransform([]string{"python docker", "python kafka"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	// idf(python) = ln(3/3)+1 = 1, idf(docker) = ln(3/2)+1
	assert.InDelta(t, 0.3361, sparseCosine(vectors[0], vectors[1]), 1e-3)
	assert.InDelta(t, 1.0, sparseNorm(vectors[0]), 1e-9)
}

func TestVectorizer_EmptyVocabulary(t *testing.T) {
	_, err := NewVectorizer(1000, 3).FitTransform([]string{"the and of", "123 !!!"})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestVectorizer_MaxFeatures(t *testing.T) {
	v := Vectorizer{MaxFeatures: 2, NGramMin: 1, NGramMax: 1}
	vocab := v.limitVocabulary(map[string]int{"go": 5, "python": 3, "rust": 3, "java": 1})
	assert.Equal(t, map[string]int{"go": 0, "python": 1}, vocab)
}

func TestLexicalSignal(t *testing.T) {
	s := NewLexicalSignal(NewVectorizer(1000, 3))

	same, err := s.Score(context.Background(), Input{Resume: "Go microservices on Kubernetes", Job: "Go microservices on Kubernetes"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-9)

	disjoint, err := s.Score(context.Background(), Input{Resume: "baking bread pastries", Job: "kubernetes terraform clusters"})
	require.NoError(t, err)
	assert.Zero(t, disjoint)

	_, err = s.Score(context.Background(), Input{Resume: "the", Job: "and"})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}
