// Package config defines the service configuration and its layered loader.
//
// Every threshold the matching pipeline uses lives here so deployments can tune
// them without a rebuild. Durations accept Go duration strings ("2s", "1m").
package config

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Server     Server     `koanf:"server"`
	LLM        LLM        `koanf:"llm"`
	Input      Input      `koanf:"input"`
	Keywords   Keywords   `koanf:"keywords"`
	Similarity Similarity `koanf:"similarity"`
	Suggestion Suggestion `koanf:"suggestion"`
	Result     Result     `koanf:"result"`
	Fetch      Fetch      `koanf:"fetch"`
}

// Server configures the HTTP layer.
type Server struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// MaxUploadBytes caps multipart resume uploads.
	MaxUploadBytes int64     `koanf:"max_upload_bytes"`
	RateLimit      RateLimit `koanf:"rate_limit"`
}

// RateLimit configures per-client limiting of the analysis endpoints.
type RateLimit struct {
	Enabled         bool          `koanf:"enabled"`
	Limit           int           `koanf:"limit"`
	Window          time.Duration `koanf:"window"`
	Burst           int           `koanf:"burst"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LLM configures the generative text service.
type LLM struct {
	// Provider is "gemini" or "genai".
	Provider string `koanf:"provider"`
	// APIKey defaults to GEMINI_API_KEY.
	APIKey string `koanf:"api_key"`
	// Models maps tiers (lite, standard, advanced) to model names; unset tiers keep the provider defaults.
	Models         map[string]string `koanf:"models"`
	EmbeddingModel string            `koanf:"embedding_model"`
	// RemoteEmbeddings uses the provider's embedding model for the semantic signal
	// whenever an API key is set. Off, or without a key, the local hashing embedder is used.
	RemoteEmbeddings bool `koanf:"remote_embeddings"`
}

// Input configures request validation.
type Input struct {
	MinChars int `koanf:"min_chars"`
}

// Keywords configures the Keyword Extractor.
type Keywords struct {
	Max           int           `koanf:"max"`
	FallbackLimit int           `koanf:"fallback_limit"`
	Timeout       time.Duration `koanf:"timeout"`
	Attempts      int           `koanf:"attempts"`
	Backoff       time.Duration `koanf:"backoff"`
}

// Weights are the fusion weights of the four similarity signals.
type Weights struct {
	Semantic float64 `koanf:"semantic"`
	Coverage float64 `koanf:"coverage"`
	Lexical  float64 `koanf:"lexical"`
	Overlap  float64 `koanf:"overlap"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Coverage + w.Lexical + w.Overlap
}

// Similarity configures the Similarity Engine and its calibration.
type Similarity struct {
	Weights       Weights `koanf:"weights"`
	Floor         float64 `koanf:"floor"`
	FloorSlope    float64 `koanf:"floor_slope"`
	Ceiling       float64 `koanf:"ceiling"`
	FallbackScore float64 `koanf:"fallback_score"`
	MaxFeatures   int     `koanf:"max_features"`
	NGramMax      int     `koanf:"ngram_max"`
	EmbeddingDim  int     `koanf:"embedding_dim"`
}

// Suggestion configures the Suggestion Orchestrator and its QualityGate.
type Suggestion struct {
	Attempts           int           `koanf:"attempts"`
	Temperature        float64       `koanf:"temperature"`
	TemperatureStep    float64       `koanf:"temperature_step"`
	MaxTemperature     float64       `koanf:"max_temperature"`
	MaxOutputTokens    int           `koanf:"max_output_tokens"`
	RateLimitBackoff   time.Duration `koanf:"rate_limit_backoff"`
	TransientDelay     time.Duration `koanf:"transient_delay"`
	CallTimeout        time.Duration `koanf:"call_timeout"`
	PrimaryInputChars  int           `koanf:"primary_input_chars"`
	FallbackInputChars int           `koanf:"fallback_input_chars"`
	Gate               Gate          `koanf:"gate"`
}

// Gate holds the QualityGate thresholds.
type Gate struct {
	PrimaryMinChars    int `koanf:"primary_min_chars"`
	FallbackMinChars   int `koanf:"fallback_min_chars"`
	StrengthsMinChars  int `koanf:"strengths_min_chars"`
	ImprovementsChars  int `koanf:"improvements_min_chars"`
	ImprovementBullets int `koanf:"improvement_bullets"`
	ProTipMinChars     int `koanf:"pro_tip_min_chars"`
	MaxGenericPhrases  int `koanf:"max_generic_phrases"`
}

// Result configures the Result Validator.
type Result struct {
	MaxMatched         int     `koanf:"max_matched"`
	MaxMissing         int     `koanf:"max_missing"`
	MinSuggestionChars int     `koanf:"min_suggestion_chars"`
	InvalidScore       float64 `koanf:"invalid_score"`
	OverflowScore      float64 `koanf:"overflow_score"`
}

// Fetch configures job-posting retrieval for --job-url.
type Fetch struct {
	Timeout    time.Duration `koanf:"timeout"`
	UseBrowser bool          `koanf:"use_browser"`
	UserAgent  string        `koanf:"user_agent"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Server: Server{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  10 << 20,
			RateLimit: RateLimit{
				Enabled:         true,
				Limit:           30,
				Window:          time.Minute,
				Burst:           5,
				CleanupInterval: 5 * time.Minute,
			},
		},
		LLM: LLM{
			Provider:         "gemini",
			EmbeddingModel:   "text-embedding-004",
			RemoteEmbeddings: true,
		},
		Input: Input{MinChars: 50},
		Keywords: Keywords{
			Max:           20,
			FallbackLimit: 12,
			Timeout:       30 * time.Second,
			Attempts:      2,
			Backoff:       time.Second,
		},
		Similarity: Similarity{
			Weights:       Weights{Semantic: 0.6, Coverage: 0.2, Lexical: 0.1, Overlap: 0.1},
			Floor:         20,
			FloorSlope:    0.5,
			Ceiling:       95,
			FallbackScore: 45,
			MaxFeatures:   1000,
			NGramMax:      3,
			EmbeddingDim:  384,
		},
		Suggestion: Suggestion{
			Attempts:           3,
			Temperature:        0.7,
			TemperatureStep:    0.1,
			MaxTemperature:     1.0,
			MaxOutputTokens:    1800,
			RateLimitBackoff:   2 * time.Second,
			TransientDelay:     2 * time.Second,
			CallTimeout:        60 * time.Second,
			PrimaryInputChars:  2000,
			FallbackInputChars: 1500,
			Gate: Gate{
				PrimaryMinChars:    300,
				FallbackMinChars:   200,
				StrengthsMinChars:  80,
				ImprovementsChars:  150,
				ImprovementBullets: 2,
				ProTipMinChars:     40,
				MaxGenericPhrases:  2,
			},
		},
		Result: Result{
			MaxMatched:         15,
			MaxMissing:         10,
			MinSuggestionChars: 200,
			InvalidScore:       50,
			OverflowScore:      95,
		},
		Fetch: Fetch{
			Timeout:   30 * time.Second,
			UserAgent: "resume-matcher/1.0",
		},
	}
}

// Validate checks ranges and cross-field constraints. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		add("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.Server.Addr == "" {
		add("server.addr must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		add("server.max_upload_bytes must be positive")
	}
	if rl := c.Server.RateLimit; rl.Enabled && (rl.Limit <= 0 || rl.Window <= 0) {
		add("server.rate_limit needs a positive limit and window when enabled")
	}
	switch c.LLM.Provider {
	case "gemini", "genai":
	default:
		add("llm.provider %q is not one of gemini, genai", c.LLM.Provider)
	}
	if c.Input.MinChars <= 0 {
		add("input.min_chars must be positive")
	}
	if c.Keywords.Max <= 0 || c.Keywords.FallbackLimit <= 0 {
		add("keywords.max and keywords.fallback_limit must be positive")
	}

	w := c.Similarity.Weights
	if w.Semantic < 0 || w.Coverage < 0 || w.Lexical < 0 || w.Overlap < 0 {
		add("similarity.weights must be non-negative")
	}
	if math.Abs(w.Sum()-1) > 1e-6 {
		add("similarity.weights must sum to 1, got %.4f", w.Sum())
	}
	s := c.Similarity
	if s.Floor < 0 || s.Ceiling > 100 || s.Floor >= s.Ceiling {
		add("similarity.floor and similarity.ceiling must satisfy 0 <= floor < ceiling <= 100")
	}
	if s.FallbackScore < 0 || s.FallbackScore > 100 {
		add("similarity.fallback_score must be within [0, 100]")
	}

	sg := c.Suggestion
	if sg.Attempts <= 0 {
		add("suggestion.attempts must be positive")
	}
	if sg.Temperature <= 0 || sg.Temperature > sg.MaxTemperature {
		add("suggestion.temperature must be positive and at most max_temperature")
	}
	if sg.Gate.FallbackMinChars > sg.Gate.PrimaryMinChars {
		add("suggestion.gate.fallback_min_chars must not exceed primary_min_chars")
	}

	r := c.Result
	if r.MaxMatched <= 0 || r.MaxMissing <= 0 {
		add("result.max_matched and result.max_missing must be positive")
	}
	if r.MinSuggestionChars > sg.Gate.FallbackMinChars {
		add("result.min_suggestion_chars must not exceed suggestion.gate.fallback_min_chars")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
