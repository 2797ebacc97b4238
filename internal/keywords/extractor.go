// Package keywords extracts the critical terms of a job description, asking the
// generative service first and falling back to a deterministic pattern bank.
package keywords

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/prompts"
	"github.com/jonathan/resume-matcher/internal/retry"
	"github.com/jonathan/resume-matcher/internal/textnorm"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Source tells which strategy produced a KeywordSet.
type Source string

const (
	// SourceLLM means the generative service supplied the keywords
	SourceLLM Source = "llm"
	// SourceFallback means the pattern bank supplied the keywords
	SourceFallback Source = "fallback"
)

// Default limits used when Options leaves them at zero.
const (
	DefaultMaxKeywords   = 20
	DefaultFallbackLimit = 12
	DefaultTimeout       = 30 * time.Second
	DefaultBackoff       = time.Second
)

// Options configures an Extractor.
type Options struct {
	MaxKeywords   int
	FallbackLimit int
	// Timeout bounds each call to the generative service
	Timeout time.Duration
	Tier    llm.ModelTier
	Retry   retry.Policy
	Logger  *slog.Logger
}

// Extractor produces the KeywordSet of a job description.
type Extractor struct {
	client llm.Client
	opts   Options
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A nil client always uses the pattern bank.
func NewExtractor(client llm.Client, opts Options) *Extractor {
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = DefaultMaxKeywords
	}
	if opts.FallbackLimit <= 0 {
		opts.FallbackLimit = DefaultFallbackLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierLite
	}
	if opts.Retry.Name == "" {
		opts.Retry.Name = "keyword extraction"
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = llm.IsRetryable
	}
	if opts.Retry.Backoff == nil {
		opts.Retry.Backoff = llm.Backoff(DefaultBackoff, DefaultBackoff)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = logger
	}

	return &Extractor{client: client, opts: opts, logger: logger}
}

// Extract returns the critical terms of job. It never fails: when the generative
// service is unavailable or its answer is unusable, the pattern bank is used.
// An empty set means no critical terms were identified.
func (e *Extractor) Extract(ctx context.Context, job string) (types.KeywordSet, Source) {
	if e.client != nil {
		set, err := retry.Do(ctx, e.opts.Retry, func(ctx context.Context, _ int) (types.KeywordSet, error) {
			return e.extractWithLLM(ctx, job)
		})
		if err == nil {
			return set, SourceLLM
		}
		e.logger.Warn("keyword extraction falling back to pattern bank", slog.Any("error", err))
	}

	return Fallback(job, e.opts.FallbackLimit), SourceFallback
}

func (e *Extractor) extractWithLLM(ctx context.Context, job string) (types.KeywordSet, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	prompt, err := prompts.Render("keywords.json", "extract-keywords", map[string]string{
		"JobDescription": job,
	})
	if err != nil {
		return nil, err
	}

	response, err := e.client.GenerateContent(callCtx, prompt, e.opts.Tier)
	if err != nil {
		return nil, llm.Classify(err)
	}

	set := ParseKeywordList(response, e.opts.MaxKeywords)
	if len(set) == 0 {
		return nil, &llm.ServiceError{Kind: llm.KindMalformed, Message: "no keywords in response"}
	}

	e.logger.Debug("extracted keywords", slog.Int("count", len(set)))
	return set, nil
}

// ParseKeywordList turns a comma-separated model answer into a KeywordSet:
// entries are trimmed and lowercased, empties and single characters dropped,
// duplicates removed keeping the first occurrence, and the result capped at limit.
func ParseKeywordList(response string, limit int) types.KeywordSet {
	response = llm.CleanCodeFence(response)
	fields := strings.FieldsFunc(response, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	set := make(types.KeywordSet, 0, min(len(fields), limit))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(set) >= limit {
			break
		}
		term := textnorm.NormalizeTerm(cleanEntry(f))
		if utf8.RuneCountInString(term) <= 1 || seen[term] {
			continue
		}
		seen[term] = true
		set = append(set, term)
	}
	return set
}

// cleanEntry strips list decoration a model may add despite instructions.
func cleanEntry(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*•")
	s = strings.TrimSpace(s)
	// numbered lists: "1. python", "2) docker"
	if i := strings.IndexAny(s, ".)"); i > 0 && i <= 3 && isDigits(s[:i]) {
		s = s[i+1:]
	}
	return strings.Trim(strings.TrimSpace(s), "\"'`")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Fallback extracts up to limit terms from job with the pattern bank. It never fails.
func Fallback(job string, limit int) types.KeywordSet {
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	return types.KeywordSet(matchBank(textnorm.NormalizeKeywordText(job), limit))
}
