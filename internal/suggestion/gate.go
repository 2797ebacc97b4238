// Package suggestion generates improvement advice for a resume through the
// generative service and rejects answers that do not meet the quality bar.
package suggestion

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section markers every suggestion must contain, in this order.
const (
	MarkerStrengths    = "✨ STRENGTHS"
	MarkerImprovements = "🔍 IMPROVEMENTS"
	MarkerProTip       = "💡 PRO TIP"
)

// DefaultGenericPhrases are boilerplate phrases that signal advice not tailored to the job.
var DefaultGenericPhrases = []string{
	"customize your resume",
	"tailor your application",
	"add more keywords",
	"improve your resume",
}

// QualityGate is the acceptance policy for a generated suggestion.
//
//   - MinTotalChars: trimmed length of the whole answer (300 primary, 200 fallback by default)
//   - MinStrengthsChars, MinImprovementsChars, MinProTipChars: trimmed length of each section
//   - MinImprovementBullets: bullets in the improvements section
//   - MaxGenericPhrases: answers containing more generic phrases than this are rejected
type QualityGate struct {
	MinTotalChars         int
	MinStrengthsChars     int
	MinImprovementsChars  int
	MinImprovementBullets int
	MinProTipChars        int
	MaxGenericPhrases     int
	GenericPhrases        []string
}

// DefaultPrimaryGate returns the gate applied to answers of the primary prompt.
func DefaultPrimaryGate() QualityGate {
	return QualityGate{
		MinTotalChars:         300,
		MinStrengthsChars:     80,
		MinImprovementsChars:  150,
		MinImprovementBullets: 2,
		MinProTipChars:        40,
		MaxGenericPhrases:     2,
		GenericPhrases:        DefaultGenericPhrases,
	}
}

// Relaxed returns a copy of the gate with a lower total-length requirement,
// used for answers of the shorter fallback prompt.
func (g QualityGate) Relaxed(minTotalChars int) QualityGate {
	g.MinTotalChars = minTotalChars
	return g
}

// Sections is a suggestion split at its markers.
type Sections struct {
	Strengths    string
	Improvements string
	ProTip       string
}

// Split locates the three markers and returns the text of each section.
// ok is false when a marker is missing or the markers are out of order.
func Split(text string) (Sections, bool) {
	si := strings.Index(text, MarkerStrengths)
	ii := strings.Index(text, MarkerImprovements)
	pi := strings.Index(text, MarkerProTip)
	if si < 0 || ii < 0 || pi < 0 || !(si < ii && ii < pi) {
		return Sections{}, false
	}

	improvements := text[ii+len(MarkerImprovements) : pi]
	// drop the rest of the heading line, e.g. " NEEDED"
	if nl := strings.IndexByte(improvements, '\n'); nl >= 0 {
		improvements = improvements[nl+1:]
	}

	return Sections{
		Strengths:    strings.TrimSpace(text[si+len(MarkerStrengths) : ii]),
		Improvements: strings.TrimSpace(improvements),
		ProTip:       strings.TrimSpace(text[pi+len(MarkerProTip):]),
	}, true
}

// Check returns nil when text passes the gate, or a *QualityGateError naming the first failed rule.
func (g QualityGate) Check(text string) error {
	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n < g.MinTotalChars {
		return &QualityGateError{Rule: "length", Message: fmt.Sprintf("response has %d characters, need %d", n, g.MinTotalChars)}
	}

	sections, ok := Split(trimmed)
	if !ok {
		return &QualityGateError{Rule: "sections", Message: "missing or misordered section markers"}
	}
	if n := utf8.RuneCountInString(sections.Strengths); n < g.MinStrengthsChars {
		return &QualityGateError{Rule: "strengths", Message: fmt.Sprintf("strengths section has %d characters, need %d", n, g.MinStrengthsChars)}
	}
	if n := utf8.RuneCountInString(sections.Improvements); n < g.MinImprovementsChars {
		return &QualityGateError{Rule: "improvements", Message: fmt.Sprintf("improvements section has %d characters, need %d", n, g.MinImprovementsChars)}
	}
	if n := CountBullets(sections.Improvements); n < g.MinImprovementBullets {
		return &QualityGateError{Rule: "bullets", Message: fmt.Sprintf("improvements section has %d bullets, need %d", n, g.MinImprovementBullets)}
	}
	if n := utf8.RuneCountInString(sections.ProTip); n < g.MinProTipChars {
		return &QualityGateError{Rule: "pro_tip", Message: fmt.Sprintf("pro tip section has %d characters, need %d", n, g.MinProTipChars)}
	}

	lower := strings.ToLower(trimmed)
	generic := 0
	for _, phrase := range g.GenericPhrases {
		if strings.Contains(lower, phrase) {
			generic++
		}
	}
	if generic > g.MaxGenericPhrases {
		return &QualityGateError{Rule: "generic", Message: fmt.Sprintf("response contains %d generic phrases", generic)}
	}
	return nil
}

// CountBullets counts lines that start with a bullet or list number.
func CountBullets(section string) int {
	count := 0
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "•"), strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			count++
		case len(line) > 2 && unicode.IsDigit(rune(line[0])) && (line[1] == '.' || line[1] == ')'):
			count++
		}
	}
	return count
}
