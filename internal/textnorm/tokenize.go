package textnorm

import (
	"strings"
	"unicode"
)

// Tokenize normalizes text and splits it into words.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}

// ContentTokens returns the normalized words of text with English stopwords removed.
func ContentTokens(text string) []string {
	words := Tokenize(text)
	out := words[:0]
	for _, w := range words {
		if !IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

// Sentences splits text on sentence-ending punctuation followed by whitespace and on line breaks.
// Returned sentences are trimmed and never empty.
func Sentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// "node.js" and "3.5" are not boundaries
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// SentencesLongerThan returns the sentences of text whose trimmed length exceeds minChars.
func SentencesLongerThan(text string, minChars int) []string {
	all := Sentences(text)
	out := make([]string, 0, len(all))
	for _, s := range all {
		if len([]rune(s)) > minChars {
			out = append(out, s)
		}
	}
	return out
}
