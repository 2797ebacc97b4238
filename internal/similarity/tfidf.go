package similarity

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/resume-matcher/internal/textnorm"
)

// ErrEmptyVocabulary is returned when no document contains a usable term.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stopwords or no words")

// Default vectorizer settings.
const (
	DefaultMaxFeatures = 1000
	DefaultNGramMax    = 3
)

// Vectorizer turns documents into L2-normalized TF-IDF vectors over word n-grams.
// Stopwords are removed before n-grams are formed, idf is smoothed as
// ln((1+n)/(1+df))+1 and the vocabulary keeps the most frequent terms.
// A Vectorizer holds only configuration and is safe for concurrent use.
type Vectorizer struct {
	MaxFeatures int
	NGramMin    int
	NGramMax    int
}

// NewVectorizer returns a vectorizer with the given vocabulary cap and maximum n-gram length.
func NewVectorizer(maxFeatures, ngramMax int) Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	if ngramMax <= 0 {
		ngramMax = DefaultNGramMax
	}
	return Vectorizer{MaxFeatures: maxFeatures, NGramMin: 1, NGramMax: ngramMax}
}

// Analyze returns the n-gram terms of one document.
func (v Vectorizer) Analyze(doc string) []string {
	words := make([]string, 0)
	for _, w := range textnorm.Tokenize(doc) {
		if len([]rune(w)) < 2 || textnorm.IsStopword(w) {
			continue
		}
		words = append(words, w)
	}

	lo, hi := max(v.NGramMin, 1), max(v.NGramMax, 1)
	terms := make([]string, 0, len(words)*(hi-lo+1))
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}

// FitTransform builds the vocabulary from docs and returns one sparse vector per doc.
func (v Vectorizer) FitTransform(docs []string) ([]map[int]float64, error) {
	counts := make([]map[string]int, len(docs))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, term := range v.Analyze(doc) {
			counts[i][term]++
			corpusFreq[term]++
		}
		for term := range counts[i] {
			docFreq[term]++
		}
	}

	if len(corpusFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := v.limitVocabulary(corpusFreq)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for term, idx := range vocab {
		idf[idx] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([]map[int]float64, len(docs))
	for i := range docs {
		vec := make(map[int]float64)
		for term, tf := range counts[i] {
			if idx, ok := vocab[term]; ok {
				vec[idx] = float64(tf) * idf[idx]
			}
		}
		if norm := sparseNorm(vec); norm > 0 {
			for k := range vec {
				vec[k] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// limitVocabulary keeps the MaxFeatures most frequent terms, ties broken alphabetically,
// and assigns indices in alphabetical order.
func (v Vectorizer) limitVocabulary(corpusFreq map[string]int) map[string]int {
	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}

	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if corpusFreq[terms[i]] != corpusFreq[terms[j]] {
				return corpusFreq[terms[i]] > corpusFreq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}
	return vocab
}

// LexicalSignal is the TF-IDF cosine similarity of the two documents.
type LexicalSignal struct {
	vectorizer Vectorizer
}

// NewLexicalSignal creates the lexical signal.
func NewLexicalSignal(v Vectorizer) *LexicalSignal {
	return &LexicalSignal{vectorizer: v}
}

// Name returns the signal name.
func (s *LexicalSignal) Name() string { return SignalLexical }

// Score fits the vectorizer on both documents and returns their cosine similarity.
func (s *LexicalSignal) Score(_ context.Context, in Input) (float64, error) {
	vectors, err := s.vectorizer.FitTransform([]string{in.Resume, in.Job})
	if err != nil {
		return NeutralValue, err
	}
	return clamp01(sparseCosine(vectors[0], vectors[1])), nil
}
