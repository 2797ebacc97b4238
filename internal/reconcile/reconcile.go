// Package reconcile decides which job keywords are present in a resume.
package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/resume-matcher/internal/textnorm"
	"github.com/jonathan/resume-matcher/internal/types"
)

// maxNGram is the longest run of resume tokens joined when comparing compact forms.
const maxNGram = 4

// symbolWords spells out symbols that resumes often write as words.
var symbolWords = strings.NewReplacer("+", "plus", "#", "sharp", "&", "and")

// Reconcile partitions keywords into those found in resume and those that are not.
// Every keyword lands in exactly one of the two lists and input order is preserved.
func Reconcile(resume string, keywords types.KeywordSet) types.MatchPartition {
	idx := newResumeIndex(resume)

	p := types.MatchPartition{
		Matched: make([]string, 0, len(keywords)),
		Missing: make([]string, 0),
	}
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if idx.contains(kw) {
			p.Matched = append(p.Matched, kw)
		} else {
			p.Missing = append(p.Missing, kw)
		}
	}
	return p
}

// resumeIndex holds the resume forms every keyword is checked against.
type resumeIndex struct {
	original   string
	normalized string
	compact    map[string]struct{}
}

func newResumeIndex(resume string) *resumeIndex {
	return &resumeIndex{
		original:   resume,
		normalized: textnorm.NormalizeKeywordText(resume),
		compact:    compactNGrams(symbolTokens(resume), maxNGram),
	}
}

// contains applies the matching rules in order; the first success wins.
func (r *resumeIndex) contains(keyword string) bool {
	variants := Variants(keyword)

	for _, v := range variants {
		if strings.Contains(r.normalized, v) {
			return true
		}
	}
	for _, v := range variants {
		if strings.Contains(r.original, v) {
			return true
		}
	}
	for _, re := range wholeWordPatterns(keyword) {
		if re.MatchString(r.original) {
			return true
		}
	}

	c := strings.Join(symbolTokens(keyword), "")
	if len(c) < 2 {
		return false
	}
	_, ok := r.compact[c]
	return ok
}

// Variants returns the spellings a keyword may take in a resume: the keyword itself,
// without spaces, with hyphens and underscores as spaces, without periods, and with
// '+', '#', '&' spelled out. Duplicates and empty forms are dropped.
func Variants(keyword string) []string {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	candidates := []string{
		kw,
		strings.ReplaceAll(kw, " ", ""),
		strings.NewReplacer("-", " ", "_", " ").Replace(kw),
		strings.ReplaceAll(kw, ".", ""),
		symbolWords.Replace(kw),
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// wholeWordPatterns builds case-insensitive whole-word patterns for the keyword,
// its no-space form and its hyphenated form. Boundaries treat '+' and '#' as part
// of a word so that "c" never matches inside "c++".
func wholeWordPatterns(keyword string) []*regexp.Regexp {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	forms := []string{kw}
	if strings.Contains(kw, " ") {
		forms = append(forms, strings.ReplaceAll(kw, " ", ""), strings.ReplaceAll(kw, " ", "-"))
	}

	patterns := make([]*regexp.Regexp, 0, len(forms))
	for _, f := range forms {
		patterns = append(patterns, regexp.MustCompile(
			`(?i)(?:^|[^\pL\pN+#])`+regexp.QuoteMeta(f)+`(?:$|[^\pL\pN+#])`))
	}
	return patterns
}

// symbolTokens lowercases text and splits it on anything that is not a letter,
// a digit, '+' or '#'.
func symbolTokens(text string) []string {
	return strings.FieldsFunc(textnorm.Lower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// compactNGrams joins every run of 1..n consecutive tokens without separators.
func compactNGrams(tokens []string, n int) map[string]struct{} {
	grams := make(map[string]struct{}, len(tokens)*n)
	for i := range tokens {
		var b strings.Builder
		for j := i; j < len(tokens) && j < i+n; j++ {
			b.WriteString(tokens[j])
			grams[b.String()] = struct{}{}
		}
	}
	return grams
}
