package validation

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/jonathan/resume-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longSuggestion = "✨ STRENGTHS\n" + strings.Repeat("solid python background. ", 10)

func draft(score float64) types.MatchDraft {
	return types.MatchDraft{
		SimilarityScore: score,
		MatchedKeywords: []string{"python"},
		MissingKeywords: []string{"kubernetes"},
		Suggestion:      longSuggestion,
	}
}

func TestFinalize_Score(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"in range", 72.456, 72.46},
		{"zero", 0, 0},
		{"hundred", 100, 100},
		{"nan", math.NaN(), 50},
		{"positive infinity", math.Inf(1), 50},
		{"negative infinity", math.Inf(-1), 50},
		{"negative", -3, 50},
		{"overflow", 100.01, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Finalize(draft(tt.score))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.SimilarityScore)
		})
	}
}

func TestFinalize_Keywords(t *testing.T) {
	var matched, missing []string
	for i := 0; i < 30; i++ {
		matched = append(matched, fmt.Sprintf("m%d", i))
		missing = append(missing, fmt.Sprintf("x%d", i))
	}
	matched = append([]string{"", " go ", "go", "  "}, matched...)

	result, err := Finalize(types.MatchDraft{
		SimilarityScore: 60,
		MatchedKeywords: matched,
		MissingKeywords: missing,
		Suggestion:      longSuggestion,
	})
	require.NoError(t, err)

	assert.Len(t, result.MatchedKeywords, 15)
	assert.Equal(t, "go", result.MatchedKeywords[0])
	assert.Equal(t, "m0", result.MatchedKeywords[1])
	assert.Len(t, result.MissingKeywords, 10)
	assert.Equal(t, "x9", result.MissingKeywords[9])
}

func TestFinalize_NilKeywordsBecomeEmptyLists(t *testing.T) {
	result, err := Finalize(types.MatchDraft{SimilarityScore: 40, Suggestion: longSuggestion})
	require.NoError(t, err)

	assert.NotNil(t, result.MatchedKeywords)
	assert.NotNil(t, result.MissingKeywords)
	assert.Empty(t, result.MatchedKeywords)
}

func TestFinalize_Suggestion(t *testing.T) {
	t.Run("trimmed", func(t *testing.T) {
		d := draft(50)
		d.Suggestion = "\n\n  " + longSuggestion + "  \n"
		result, err := Finalize(d)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(longSuggestion), result.Suggestion)
	})

	t.Run("missing", func(t *testing.T) {
		d := draft(50)
		d.Suggestion = ""
		_, err := Finalize(d)

		var vErr *Error
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "suggestion", vErr.Field)
	})

	t.Run("short after trimming", func(t *testing.T) {
		d := draft(50)
		d.Suggestion = strings.Repeat(" ", 300) + strings.Repeat("a", 199)
		_, err := Finalize(d)
		assert.Error(t, err)
	})

	t.Run("exactly at the minimum", func(t *testing.T) {
		d := draft(50)
		d.Suggestion = strings.Repeat("é", 200)
		_, err := Finalize(d)
		assert.NoError(t, err)
	})
}

func TestFinalize_IsPure(t *testing.T) {
	d := draft(math.NaN())
	d.MatchedKeywords = []string{"go", "go"}

	first, err := Finalize(d)
	require.NoError(t, err)
	second, err := Finalize(d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"go", "go"}, d.MatchedKeywords, "draft is not modified")
}

func TestNewFinalizer_CustomLimits(t *testing.T) {
	f, err := NewFinalizer(Limits{MaxMatched: 2, MaxMissing: 1, MinSuggestionChars: 10, InvalidScore: 45, OverflowScore: 99})
	require.NoError(t, err)

	result, err := f.Finalize(types.MatchDraft{
		SimilarityScore: math.NaN(),
		MatchedKeywords: []string{"a", "b", "c"},
		MissingKeywords: []string{"d", "e"},
		Suggestion:      "ten chars!",
	})
	require.NoError(t, err)
	assert.Equal(t, 45.0, result.SimilarityScore)
	assert.Equal(t, []string{"a", "b"}, result.MatchedKeywords)
	assert.Equal(t, []string{"d"}, result.MissingKeywords)
}

func TestNewFinalizer_RejectsBadLimits(t *testing.T) {
	_, err := NewFinalizer(Limits{MaxMatched: 0, MaxMissing: 10})
	assert.Error(t, err)

	_, err = NewFinalizer(Limits{MaxMatched: 1, MaxMissing: 1, InvalidScore: 120})
	assert.Error(t, err)
}
