// Package similarity scores how closely a resume matches a job description by
// fusing independent similarity signals into one bounded percentage.
package similarity

import (
	"context"
	"errors"
	"math"

	"github.com/jonathan/resume-matcher/internal/types"
)

// Signal names used in configuration and score breakdowns.
const (
	SignalSemantic = "semantic"
	SignalCoverage = "coverage"
	SignalLexical  = "lexical"
	SignalOverlap  = "overlap"
)

// NeutralValue is used for a signal that cannot be computed.
const NeutralValue = 0.5

// ErrNoEvidence is returned by a signal when its input carries nothing to compare.
// The engine substitutes NeutralValue without treating it as a failure.
var ErrNoEvidence = errors.New("no evidence for signal")

// Input is everything a signal may look at.
type Input struct {
	Resume    string
	Job       string
	Partition types.MatchPartition
}

// Signal is one similarity strategy producing a value in [0,1].
type Signal interface {
	Name() string
	Score(ctx context.Context, in Input) (float64, error)
}

// OverlapSignal is the share of job keywords found in the resume.
type OverlapSignal struct{}

// Name returns the signal name.
func (OverlapSignal) Name() string { return SignalOverlap }

// Score returns |matched| / (|matched| + |missing|).
func (OverlapSignal) Score(_ context.Context, in Input) (float64, error) {
	total := in.Partition.Total()
	if total == 0 {
		return NeutralValue, ErrNoEvidence
	}
	return float64(len(in.Partition.Matched)) / float64(total), nil
}

// clamp01 bounds v to [0,1]; NaN becomes 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
