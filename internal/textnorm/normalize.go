// Package textnorm provides the text cleanup, tokenization and sentence splitting
// shared by keyword extraction, reconciliation and similarity scoring.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// keywordSymbols are the punctuation characters that carry meaning inside technical
// terms such as "c++", "c#", "ci/cd" and "front-end".
const keywordSymbols = "-+#/"

// Normalize lowercases text, replaces digits and punctuation with spaces and
// collapses runs of whitespace. It is pure and never fails.
func Normalize(text string) string {
	return clean(text, "")
}

// NormalizeKeywordText is Normalize for the keyword path: the characters
// '-', '+', '#' and '/' survive so that technical terms keep their shape.
func NormalizeKeywordText(text string) string {
	return clean(text, keywordSymbols)
}

// NormalizeTerm folds a single keyword: trimmed, lowercased, inner whitespace collapsed.
// Punctuation is left alone so that "node.js" stays recognizable.
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(lower(term)), " ")
}

// Lower applies Unicode-aware lowercasing after NFKC composition.
func Lower(text string) string {
	return lower(text)
}

func lower(text string) string {
	if text == "" {
		return ""
	}
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Lower(language.English).String(norm.NFKC.String(text))
}

func clean(text, keep string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	lowered := lower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	space := true
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			space = false
		case keep != "" && strings.ContainsRune(keep, r):
			b.WriteRune(r)
			space = false
		default:
			// digits, punctuation and whitespace all become a single separator
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
