package suggestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/prompts"
	"github.com/jonathan/resume-matcher/internal/retry"
)

// Prompt tiers.
const (
	TierPrimary  = "primary"
	TierFallback = "fallback"
)

// Attempt outcomes reported through Options.OnAttempt.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeRateLimit = "rate_limited"
	OutcomeError     = "error"
)

// Request carries everything the suggestion prompt needs.
type Request struct {
	JobDescription string
	ResumeText     string
	Score          float64
	Matched        []string
	Missing        []string
}

// Options configures an Orchestrator. Zero values take the defaults from DefaultOptions.
type Options struct {
	MaxAttempts      int
	BaseTemperature  float64
	TemperatureStep  float64
	MaxTemperature   float64
	MaxOutputTokens  int
	RateLimitBackoff time.Duration
	TransientDelay   time.Duration
	// CallTimeout bounds each call to the generative service
	CallTimeout time.Duration
	// PrimaryInputChars and FallbackInputChars truncate job and resume text in the prompt
	PrimaryInputChars  int
	FallbackInputChars int
	PromptMatched      int
	PromptMissing      int
	Tier               llm.ModelTier
	PrimaryGate        QualityGate
	FallbackMinChars   int
	Logger             *slog.Logger
	// Sleep replaces the backoff wait; tests use it to avoid real delays
	Sleep     func(ctx context.Context, d time.Duration) error
	OnAttempt func(tier, outcome string)
}

// DefaultOptions returns the standard orchestration settings.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:        3,
		BaseTemperature:    0.7,
		TemperatureStep:    0.1,
		MaxTemperature:     1.0,
		MaxOutputTokens:    1800,
		RateLimitBackoff:   2 * time.Second,
		TransientDelay:     2 * time.Second,
		CallTimeout:        60 * time.Second,
		PrimaryInputChars:  2000,
		FallbackInputChars: 1500,
		PromptMatched:      10,
		PromptMissing:      8,
		Tier:               llm.TierStandard,
		PrimaryGate:        DefaultPrimaryGate(),
		FallbackMinChars:   200,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.BaseTemperature <= 0 {
		o.BaseTemperature = d.BaseTemperature
	}
	if o.TemperatureStep < 0 {
		o.TemperatureStep = 0
	}
	if o.MaxTemperature <= 0 {
		o.MaxTemperature = d.MaxTemperature
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = d.MaxOutputTokens
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = d.CallTimeout
	}
	if o.PrimaryInputChars <= 0 {
		o.PrimaryInputChars = d.PrimaryInputChars
	}
	if o.FallbackInputChars <= 0 {
		o.FallbackInputChars = d.FallbackInputChars
	}
	if o.PromptMatched <= 0 {
		o.PromptMatched = d.PromptMatched
	}
	if o.PromptMissing <= 0 {
		o.PromptMissing = d.PromptMissing
	}
	if o.Tier == "" {
		o.Tier = d.Tier
	}
	if o.PrimaryGate.MinTotalChars <= 0 {
		o.PrimaryGate = d.PrimaryGate
	}
	if o.FallbackMinChars <= 0 {
		o.FallbackMinChars = d.FallbackMinChars
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.OnAttempt == nil {
		o.OnAttempt = func(string, string) {}
	}
	return o
}

// Orchestrator asks the generative service for a suggestion and retries until one passes the gate.
type Orchestrator struct {
	client llm.Client
	opts   Options
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(client llm.Client, opts Options) *Orchestrator {
	return &Orchestrator{client: client, opts: opts.withDefaults()}
}

// attemptState is the prompt tier and temperature of the next attempt.
type attemptState struct {
	tier        string
	temperature float64
}

// Generate returns a suggestion that passed the QualityGate.
//
// A rejected answer switches to the shorter fallback prompt and raises the temperature.
// Rate-limit failures back off exponentially and other service failures wait a fixed
// delay; all share the same attempt budget. Running out of attempts is an error: no
// templated suggestion is ever substituted.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (string, error) {
	if o.client == nil {
		return "", &ExhaustedError{Cause: errors.New("no generative client configured")}
	}

	state := attemptState{tier: TierPrimary, temperature: o.opts.BaseTemperature}

	policy := retry.Policy{
		Name:        "suggestion",
		MaxAttempts: o.opts.MaxAttempts,
		Backoff:     o.backoff(),
		Retryable:   isRetryable,
		Logger:      o.opts.Logger,
		Sleep:       o.opts.Sleep,
	}

	text, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (string, error) {
		text, err := o.attempt(ctx, req, state)
		var gateErr *QualityGateError
		if errors.As(err, &gateErr) {
			state.tier = TierFallback
			state.temperature = math.Min(state.temperature+o.opts.TemperatureStep, o.opts.MaxTemperature)
		}
		return text, err
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return "", &ExhaustedError{Attempts: exhausted.Attempts, Cause: exhausted.Last}
		}
		return "", err
	}
	return text, nil
}

func (o *Orchestrator) attempt(ctx context.Context, req Request, state attemptState) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()

	prompt := o.buildPrompt(state.tier, req)
	response, err := o.client.GenerateContent(callCtx, prompt, o.opts.Tier,
		llm.WithTemperature(state.temperature),
		llm.WithMaxOutputTokens(o.opts.MaxOutputTokens))
	if err != nil {
		err = llm.Classify(err)
		if llm.IsRateLimited(err) {
			o.opts.OnAttempt(state.tier, OutcomeRateLimit)
		} else {
			o.opts.OnAttempt(state.tier, OutcomeError)
		}
		return "", err
	}

	text := llm.CleanCodeFence(response)
	gate := o.opts.PrimaryGate
	if state.tier == TierFallback {
		gate = gate.Relaxed(o.opts.FallbackMinChars)
	}
	if err := gate.Check(text); err != nil {
		o.opts.OnAttempt(state.tier, OutcomeRejected)
		o.opts.Logger.Warn("suggestion rejected by quality gate",
			slog.String("tier", state.tier),
			slog.Float64("temperature", state.temperature),
			slog.Any("error", err))
		return "", err
	}

	o.opts.OnAttempt(state.tier, OutcomeAccepted)
	return text, nil
}

// backoff retries a rejected answer immediately and otherwise waits by service error kind.
func (o *Orchestrator) backoff() retry.BackoffFunc {
	byKind := llm.Backoff(o.opts.RateLimitBackoff, o.opts.TransientDelay)
	return func(attempt int, err error) time.Duration {
		var gateErr *QualityGateError
		if errors.As(err, &gateErr) {
			return 0
		}
		return byKind(attempt, err)
	}
}

func isRetryable(err error) bool {
	var gateErr *QualityGateError
	return errors.As(err, &gateErr) || llm.IsRetryable(err)
}

func (o *Orchestrator) buildPrompt(tier string, req Request) string {
	key := "primary-suggestion"
	limit := o.opts.PrimaryInputChars
	if tier == TierFallback {
		key = "fallback-suggestion"
		limit = o.opts.FallbackInputChars
	}

	template := prompts.MustGet("suggestions.json", key)
	return prompts.Format(template, map[string]string{
		"JobDescription":  truncate(req.JobDescription, limit),
		"ResumeText":      truncate(req.ResumeText, limit),
		"Score":           fmt.Sprintf("%.1f", req.Score),
		"MatchedKeywords": joinOrNone(req.Matched, o.opts.PromptMatched),
		"MissingKeywords": joinOrNone(req.Missing, o.opts.PromptMissing),
	})
}

func truncate(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit])
}

func joinOrNone(terms []string, limit int) string {
	if len(terms) == 0 {
		return "None"
	}
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return strings.Join(terms, ", ")
}
