// Package analysis runs the resume matching pipeline: keyword extraction, reconciliation,
// similarity scoring, suggestion generation and result finalization.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-matcher/internal/keywords"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/reconcile"
	"github.com/jonathan/resume-matcher/internal/suggestion"
	"github.com/jonathan/resume-matcher/internal/types"
	"github.com/jonathan/resume-matcher/internal/validation"
)

// DefaultMinInputChars is the minimum trimmed length of each input text.
const DefaultMinInputChars = 50

// KeywordExtractor produces the critical terms of a job description.
type KeywordExtractor interface {
	Extract(ctx context.Context, job string) (types.KeywordSet, keywords.Source)
}

// Scorer computes the calibrated similarity score.
type Scorer interface {
	Score(ctx context.Context, resume, job string, partition types.MatchPartition) (float64, types.ScoreBreakdown)
}

// SuggestionGenerator produces improvement suggestions.
type SuggestionGenerator interface {
	Generate(ctx context.Context, req suggestion.Request) (string, error)
}

// Finalizer bounds and validates the assembled result.
type Finalizer interface {
	Finalize(draft types.MatchDraft) (*types.MatchResult, error)
}

// Options configures an Analyzer. Keywords, Scorer and Suggestions are required.
type Options struct {
	Keywords      KeywordExtractor
	Scorer        Scorer
	Suggestions   SuggestionGenerator
	Finalizer     Finalizer
	MinInputChars int
	Logger        *slog.Logger
	Metrics       *observability.Metrics
}

// Analyzer is safe for concurrent use; every call runs its own pipeline.
type Analyzer struct {
	keywords    KeywordExtractor
	scorer      Scorer
	suggestions SuggestionGenerator
	finalizer   Finalizer
	minChars    int
	validate    *validator.Validate
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// Report is a MatchResult together with the intermediate values that produced it.
type Report struct {
	RequestID     string               `json:"request_id"`
	Result        *types.MatchResult   `json:"result"`
	Keywords      types.KeywordSet     `json:"keywords"`
	KeywordSource keywords.Source      `json:"keyword_source"`
	Partition     types.MatchPartition `json:"partition"`
	Breakdown     types.ScoreBreakdown `json:"breakdown"`
}

// New creates an Analyzer.
func New(opts Options) (*Analyzer, error) {
	if opts.Keywords == nil || opts.Scorer == nil || opts.Suggestions == nil {
		return nil, errors.New("keyword extractor, scorer and suggestion generator are required")
	}
	if opts.Finalizer == nil {
		f, err := validation.NewFinalizer(validation.DefaultLimits())
		if err != nil {
			return nil, err
		}
		opts.Finalizer = f
	}
	if opts.MinInputChars <= 0 {
		opts.MinInputChars = DefaultMinInputChars
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	validate, err := newValidator(opts.MinInputChars)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		keywords:    opts.Keywords,
		scorer:      opts.Scorer,
		suggestions: opts.Suggestions,
		finalizer:   opts.Finalizer,
		minChars:    opts.MinInputChars,
		validate:    validate,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}, nil
}

func newValidator(minChars int) (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("mintext", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minChars
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register text validation: %w", err)
	}
	return v, nil
}

// Analyze scores resume against job and returns the finalized result.
func (a *Analyzer) Analyze(ctx context.Context, resume, job string) (*types.MatchResult, error) {
	report, err := a.Run(ctx, types.AnalysisRequest{ResumeText: resume, JobDescription: job}, nil)
	if err != nil {
		return nil, err
	}
	return report.Result, nil
}

// Run executes the pipeline for req, reporting each completed step to onProgress.
// On failure it returns an *Error and no partial report.
func (a *Analyzer) Run(ctx context.Context, req types.AnalysisRequest, onProgress ProgressCallback) (report *Report, err error) {
	requestID := uuid.NewString()
	logger := a.logger.With(slog.String("request_id", requestID))
	start := time.Now()

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(KindOf(err))
			logger.Warn("analysis failed", slog.String("kind", outcome), slog.Any("error", err))
		} else {
			a.metrics.ObserveScore(report.Result.SimilarityScore)
		}
		a.metrics.ObserveAnalysis(outcome, time.Since(start))
	}()

	if err := a.validateRequest(req); err != nil {
		return nil, err
	}
	emitProgress(onProgress, requestID, StepValidate, "input accepted", nil)

	keywordSet, source := a.keywords.Extract(ctx, req.JobDescription)
	a.metrics.KeywordSource(string(source))
	logger.Debug("extracted keywords", slog.String("source", string(source)), slog.Int("count", len(keywordSet)))
	emitProgress(onProgress, requestID, StepKeywords, fmt.Sprintf("%d keywords from %s", len(keywordSet), source), keywordSet)

	partition := reconcile.Reconcile(req.ResumeText, keywordSet)
	emitProgress(onProgress, requestID, StepReconcile,
		fmt.Sprintf("%d matched, %d missing", len(partition.Matched), len(partition.Missing)), partition)

	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}

	score, breakdown := a.scorer.Score(ctx, req.ResumeText, req.JobDescription, partition)
	logger.Debug("scored match", slog.Float64("score", score), slog.Float64("raw", breakdown.Raw),
		slog.String("calibration", breakdown.Calibration))
	emitProgress(onProgress, requestID, StepSimilarity, fmt.Sprintf("score %.2f", score), breakdown)

	text, err := a.suggestions.Generate(ctx, suggestion.Request{
		JobDescription: req.JobDescription,
		ResumeText:     req.ResumeText,
		Score:          score,
		Matched:        partition.Matched,
		Missing:        partition.Missing,
	})
	if err != nil {
		return nil, classify(err)
	}
	emitProgress(onProgress, requestID, StepSuggestion, "suggestion accepted", nil)

	result, err := a.finalizer.Finalize(types.MatchDraft{
		SimilarityScore: score,
		MatchedKeywords: partition.Matched,
		MissingKeywords: partition.Missing,
		Suggestion:      text,
	})
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "result failed validation", Cause: err}
	}
	emitProgress(onProgress, requestID, StepFinalize, "result ready", result)

	logger.Info("analysis complete", slog.Float64("score", result.SimilarityScore),
		slog.Int("matched", len(result.MatchedKeywords)), slog.Int("missing", len(result.MissingKeywords)),
		slog.Duration("elapsed", time.Since(start)))

	return &Report{
		RequestID:     requestID,
		Result:        result,
		Keywords:      keywordSet,
		KeywordSource: source,
		Partition:     partition,
		Breakdown:     breakdown,
	}, nil
}

// Keywords returns the critical terms of job without running the rest of the pipeline.
func (a *Analyzer) Keywords(ctx context.Context, job string) (types.KeywordSet, keywords.Source) {
	set, source := a.keywords.Extract(ctx, job)
	a.metrics.KeywordSource(string(source))
	return set, source
}

func (a *Analyzer) validateRequest(req types.AnalysisRequest) error {
	err := a.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindInputValidation, Message: "invalid request", Cause: err}
	}

	fe := verrs[0]
	msg := fmt.Sprintf("%s must contain at least %d characters", fe.Field(), a.minChars)
	if fe.Tag() == "required" {
		msg = fmt.Sprintf("%s is required", fe.Field())
	}
	return &Error{Kind: KindInputValidation, Message: msg}
}
