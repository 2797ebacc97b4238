package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/schemas"
	"github.com/jonathan/resume-matcher/internal/types"
	rootschemas "github.com/jonathan/resume-matcher/schemas"
)

// Limits bounds a MatchResult.
type Limits struct {
	MaxMatched         int
	MaxMissing         int
	MinSuggestionChars int
	// InvalidScore replaces a NaN, infinite or negative score
	InvalidScore float64
	// OverflowScore replaces a score above 100
	OverflowScore float64
}

// DefaultLimits returns the standard payload bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxMatched:         15,
		MaxMissing:         10,
		MinSuggestionChars: 200,
		InvalidScore:       50,
		OverflowScore:      95,
	}
}

// Finalizer turns pipeline drafts into MatchResults. It holds no mutable state.
type Finalizer struct {
	limits Limits
	schema *schemas.Validator
}

// NewFinalizer compiles the match-result schema and returns a Finalizer.
func NewFinalizer(limits Limits) (*Finalizer, error) {
	if limits.MaxMatched <= 0 || limits.MaxMissing <= 0 {
		return nil, &Error{Field: "limits", Message: "keyword caps must be positive"}
	}
	if limits.InvalidScore < 0 || limits.InvalidScore > 100 || limits.OverflowScore < 0 || limits.OverflowScore > 100 {
		return nil, &Error{Field: "limits", Message: "replacement scores must be within [0, 100]"}
	}

	v, err := schemas.Compile(rootschemas.MatchResult, rootschemas.MustLoad(rootschemas.MatchResult))
	if err != nil {
		return nil, err
	}
	return &Finalizer{limits: limits, schema: v}, nil
}

var defaultFinalizer *Finalizer

func init() {
	f, err := NewFinalizer(DefaultLimits())
	if err != nil {
		panic(fmt.Sprintf("match result schema: %v", err))
	}
	defaultFinalizer = f
}

// Finalize bounds draft with DefaultLimits.
func Finalize(draft types.MatchDraft) (*types.MatchResult, error) {
	return defaultFinalizer.Finalize(draft)
}

// Finalize sanitizes draft into a MatchResult.
//
// The score is repaired rather than rejected; keyword lists are de-duplicated,
// stripped of empty entries and truncated. A suggestion shorter than
// MinSuggestionChars after trimming is an error.
func (f *Finalizer) Finalize(draft types.MatchDraft) (*types.MatchResult, error) {
	suggestion := strings.TrimSpace(draft.Suggestion)
	if n := utf8.RuneCountInString(suggestion); n < f.limits.MinSuggestionChars {
		return nil, &Error{
			Field:   "suggestion",
			Message: fmt.Sprintf("has %d characters, need at least %d", n, f.limits.MinSuggestionChars),
		}
	}

	result := &types.MatchResult{
		SimilarityScore: f.boundScore(draft.SimilarityScore),
		MatchedKeywords: cleanKeywords(draft.MatchedKeywords, f.limits.MaxMatched),
		MissingKeywords: cleanKeywords(draft.MissingKeywords, f.limits.MaxMissing),
		Suggestion:      suggestion,
	}

	if err := f.schema.Validate(result); err != nil {
		return nil, &Error{Field: "result", Message: "does not conform to schema", Cause: err}
	}
	return result, nil
}

func (f *Finalizer) boundScore(score float64) float64 {
	switch {
	case math.IsNaN(score), math.IsInf(score, 0), score < 0:
		return f.limits.InvalidScore
	case score > 100:
		return f.limits.OverflowScore
	default:
		return math.Round(score*100) / 100
	}
}

// cleanKeywords never returns nil so the JSON payload always carries a list.
func cleanKeywords(terms []string, limit int) []string {
	out := make([]string, 0, min(len(terms), limit))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
		if len(out) == limit {
			break
		}
	}
	return out
}
