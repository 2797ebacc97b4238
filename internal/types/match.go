// Package types provides type definitions for structured data used throughout the resume-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// AnalysisRequest is the pair of texts submitted for one analysis.
// The mintext rule is registered by the analysis package with the configured minimum length.
type AnalysisRequest struct {
	ResumeText     string `json:"resume_text" validate:"required,mintext"`
	JobDescription string `json:"job_description" validate:"required,mintext"`
}

// KeywordSet is an ordered, case-folded, de-duplicated list of critical job terms.
type KeywordSet []string

// Contains reports whether term is part of the set.
func (k KeywordSet) Contains(term string) bool {
	for _, kw := range k {
		if kw == term {
			return true
		}
	}
	return false
}

// MatchPartition splits a KeywordSet into terms found in the resume and terms that are not.
type MatchPartition struct {
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
}

// Total returns the number of keywords that were reconciled.
func (p MatchPartition) Total() int {
	return len(p.Matched) + len(p.Missing)
}

// SignalScore is one named similarity signal and the weight it carries in the fused score.
type SignalScore struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Fallback bool    `json:"fallback,omitempty"`
}

// ScoreBreakdown explains how a similarity score was assembled.
type ScoreBreakdown struct {
	Signals []SignalScore `json:"signals"`
	Raw     float64       `json:"raw"`
	Final   float64       `json:"final"`
	// Calibration is "floor", "ceiling", "fallback" or empty when the raw score was used as is.
	Calibration string `json:"calibration,omitempty"`
}

// MatchDraft is the unsanitized output of the pipeline before it is finalized.
type MatchDraft struct {
	SimilarityScore float64
	MatchedKeywords []string
	MissingKeywords []string
	Suggestion      string
}

// MatchResult is the payload returned to callers.
type MatchResult struct {
	SimilarityScore float64  `json:"similarity_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestion      string   `json:"suggestion"`
}
