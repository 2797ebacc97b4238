package similarity

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonathan/resume-matcher/internal/textnorm"
)

// Requirement weights by cue strength.
const (
	WeightHigh     = 1.0
	WeightMedium   = 0.6
	WeightFallback = 0.3
)

const (
	maxRequirements     = 15
	minRequirementChars = 10
	fallbackSentences   = 10
	fallbackMinChars    = 30
)

// Requirement is one job requirement with its importance weight.
type Requirement struct {
	Text   string
	Weight float64
}

// requirementSpan runs to the next sentence boundary. A '.', '!' or '?' followed
// by another word character is part of a term such as "Node.js" or "ASP.NET".
const requirementSpan = `((?:[^.!?\n]|[.!?][^\s.!?])*)`

var (
	highCue   = regexp.MustCompile(`(?i)\b(?:required|must have|must-have|essential|minimum qualifications)\b\s*:?\s*` + requirementSpan)
	mediumCue = regexp.MustCompile(`(?i)\b(?:preferred|desired|nice to have|nice-to-have|responsibilities)\b\s*:?\s*` + requirementSpan)
)

// ExtractRequirements finds the requirements of a job description from cue phrases.
// High cues weigh 1.0 and medium cues 0.6; the span after a cue runs to the next
// sentence boundary and must be longer than 10 characters. Without any cue the first
// ten sentences longer than 30 characters are used with weight 0.3. At most 15 are returned.
func ExtractRequirements(job string) []Requirement {
	var reqs []Requirement
	seen := make(map[string]bool)

	add := func(re *regexp.Regexp, weight float64) {
		for _, m := range re.FindAllStringSubmatch(job, -1) {
			span := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m[1]), "-*•:"))
			key := strings.ToLower(span)
			if len([]rune(span)) <= minRequirementChars || seen[key] {
				continue
			}
			seen[key] = true
			reqs = append(reqs, Requirement{Text: span, Weight: weight})
		}
	}
	add(highCue, WeightHigh)
	add(mediumCue, WeightMedium)

	if len(reqs) == 0 {
		for _, s := range textnorm.SentencesLongerThan(job, fallbackMinChars) {
			if len(reqs) >= fallbackSentences {
				break
			}
			reqs = append(reqs, Requirement{Text: s, Weight: WeightFallback})
		}
	}

	if len(reqs) > maxRequirements {
		reqs = reqs[:maxRequirements]
	}
	return reqs
}

// CoverageSignal measures how much of each weighted job requirement the resume covers.
type CoverageSignal struct{}

// Name returns the signal name.
func (CoverageSignal) Name() string { return SignalCoverage }

// Score is the weight-normalized mean, over requirements, of the share of each
// requirement's words present in the normalized resume.
func (CoverageSignal) Score(ctx context.Context, in Input) (float64, error) {
	reqs := ExtractRequirements(in.Job)
	if len(reqs) == 0 {
		return NeutralValue, ErrNoEvidence
	}

	resumeWords := make(map[string]struct{})
	for _, w := range textnorm.Tokenize(in.Resume) {
		resumeWords[w] = struct{}{}
	}

	var weighted, totalWeight float64
	for _, r := range reqs {
		if err := ctx.Err(); err != nil {
			return NeutralValue, err
		}
		words := textnorm.Tokenize(r.Text)
		if len(words) == 0 {
			continue
		}

		present := 0
		for _, w := range words {
			if _, ok := resumeWords[w]; ok {
				present++
			}
		}
		weighted += float64(present) / float64(len(words)) * r.Weight
		totalWeight += r.Weight
	}

	if totalWeight == 0 {
		return NeutralValue, ErrNoEvidence
	}
	return clamp01(weighted / totalWeight), nil
}
