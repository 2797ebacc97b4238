package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/analysis"
	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/fetch"
	"github.com/jonathan/resume-matcher/internal/keywords"
	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/retry"
	"github.com/jonathan/resume-matcher/internal/similarity"
	"github.com/jonathan/resume-matcher/internal/suggestion"
	"github.com/jonathan/resume-matcher/internal/validation"
)

// loadConfig loads the layered configuration and applies the --log-level override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// components is everything built from a Config for one process.
type components struct {
	analyzer *analysis.Analyzer
	client   llm.EmbeddingClient
}

func (c *components) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// buildAnalyzer wires the pipeline from configuration. Without an API key the
// generative service is unavailable: keywords come from the pattern bank and
// suggestion generation fails with a service-unavailable error.
func buildAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*components, error) {
	c := &components{}

	// client stays a nil interface without an API key; both consumers handle that
	var client llm.Client
	if cfg.LLM.APIKey != "" {
		embeddingClient, err := llm.NewClient(ctx, llmConfig(cfg), cfg.LLM.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		c.client = embeddingClient
		client = embeddingClient
	} else {
		logger.Warn("no API key configured; keyword extraction uses the pattern bank and suggestions are unavailable")
	}

	embedder := selectEmbedder(cfg, c.client, logger, metrics)
	models := similarity.NewModels(embedder, similarity.NewVectorizer(cfg.Similarity.MaxFeatures, cfg.Similarity.NGramMax))
	engine, err := similarity.NewEngine(models, similarity.Options{
		Weights: similarity.Weights{
			similarity.SignalSemantic: cfg.Similarity.Weights.Semantic,
			similarity.SignalCoverage: cfg.Similarity.Weights.Coverage,
			similarity.SignalLexical:  cfg.Similarity.Weights.Lexical,
			similarity.SignalOverlap:  cfg.Similarity.Weights.Overlap,
		},
		Calibration: similarity.Calibration{
			Floor:         cfg.Similarity.Floor,
			FloorSlope:    cfg.Similarity.FloorSlope,
			Ceiling:       cfg.Similarity.Ceiling,
			FallbackScore: cfg.Similarity.FallbackScore,
		},
		Logger:           logger,
		OnSignalFallback: metrics.SignalFallback,
	})
	if err != nil {
		c.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to create similarity engine: %w", err)
	}

	extractor := keywords.NewExtractor(client, keywords.Options{
		MaxKeywords:   cfg.Keywords.Max,
		FallbackLimit: cfg.Keywords.FallbackLimit,
		Timeout:       cfg.Keywords.Timeout,
		Retry: retry.Policy{
			Name:        "keyword extraction",
			MaxAttempts: cfg.Keywords.Attempts,
			Backoff:     llm.Backoff(cfg.Keywords.Backoff, cfg.Keywords.Backoff),
			Retryable:   llm.IsRetryable,
		},
		Logger: logger,
	})

	gate := cfg.Suggestion.Gate
	primaryGate := suggestion.DefaultPrimaryGate()
	primaryGate.MinTotalChars = gate.PrimaryMinChars
	primaryGate.MinStrengthsChars = gate.StrengthsMinChars
	primaryGate.MinImprovementsChars = gate.ImprovementsChars
	primaryGate.MinImprovementBullets = gate.ImprovementBullets
	primaryGate.MinProTipChars = gate.ProTipMinChars
	primaryGate.MaxGenericPhrases = gate.MaxGenericPhrases

	sg := cfg.Suggestion
	orchestrator := suggestion.NewOrchestrator(client, suggestion.Options{
		MaxAttempts:        sg.Attempts,
		BaseTemperature:    sg.Temperature,
		TemperatureStep:    sg.TemperatureStep,
		MaxTemperature:     sg.MaxTemperature,
		MaxOutputTokens:    sg.MaxOutputTokens,
		RateLimitBackoff:   sg.RateLimitBackoff,
		TransientDelay:     sg.TransientDelay,
		CallTimeout:        sg.CallTimeout,
		PrimaryInputChars:  sg.PrimaryInputChars,
		FallbackInputChars: sg.FallbackInputChars,
		PrimaryGate:        primaryGate,
		FallbackMinChars:   gate.FallbackMinChars,
		Logger:             logger,
		OnAttempt:          metrics.SuggestionAttempt,
	})

	finalizer, err := validation.NewFinalizer(validation.Limits{
		MaxMatched:         cfg.Result.MaxMatched,
		MaxMissing:         cfg.Result.MaxMissing,
		MinSuggestionChars: cfg.Result.MinSuggestionChars,
		InvalidScore:       cfg.Result.InvalidScore,
		OverflowScore:      cfg.Result.OverflowScore,
	})
	if err != nil {
		c.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to create finalizer: %w", err)
	}

	c.analyzer, err = analysis.New(analysis.Options{
		Keywords:      extractor,
		Scorer:        engine,
		Suggestions:   orchestrator,
		Finalizer:     finalizer,
		MinInputChars: cfg.Input.MinChars,
		Logger:        logger,
		Metrics:       metrics,
	})
	if err != nil {
		c.Close() //nolint:errcheck
		return nil, err
	}
	return c, nil
}

// selectEmbedder uses the provider's embedding model when a client exists and
// remote embeddings are enabled, with the hashing embedder behind it for failed
// calls. Offline runs use the hashing embedder alone.
func selectEmbedder(cfg *config.Config, remote llm.Embedder, logger *slog.Logger, metrics *observability.Metrics) llm.Embedder {
	local := similarity.NewHashingEmbedder(cfg.Similarity.EmbeddingDim)
	if !cfg.LLM.RemoteEmbeddings || remote == nil {
		return local
	}
	return &similarity.FallbackEmbedder{
		Primary:    remote,
		Fallback:   local,
		Logger:     logger,
		OnFallback: metrics.EmbeddingFallback,
	}
}

func llmConfig(cfg *config.Config) *llm.Config {
	lc := llm.DefaultConfig()
	lc.Provider = llm.Provider(cfg.LLM.Provider)
	for tier, model := range cfg.LLM.Models {
		lc = lc.WithModel(llm.ModelTier(tier), model)
	}
	if cfg.LLM.EmbeddingModel != "" {
		lc.EmbeddingModel = cfg.LLM.EmbeddingModel
	}
	return lc
}

// postingOptions builds the job posting fetch options, with the headless browser fallback when enabled.
func postingOptions(cfg *config.Config, logger *slog.Logger) fetch.PostingOptions {
	opts := fetch.PostingOptions{
		Fetch: &fetch.Options{
			Timeout:   cfg.Fetch.Timeout,
			UserAgent: cfg.Fetch.UserAgent,
		},
		Logger: logger,
	}
	if cfg.Fetch.UseBrowser {
		opts.Render = fetch.ChromeRenderer(cfg.Fetch.Timeout, logger)
	}
	return opts
}

// newLogger writes to w, or to stderr when w is nil.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return observability.NewLogger(cfg.LogLevel, w)
}
