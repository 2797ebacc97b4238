package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-matcher/internal/types"
)

// Weights maps signal names to their share of the fused score. They must sum to 1.
type Weights map[string]float64

// DefaultWeights returns the standard fusion weights.
func DefaultWeights() Weights {
	return Weights{
		SignalSemantic: 0.60,
		SignalCoverage: 0.20,
		SignalLexical:  0.10,
		SignalOverlap:  0.10,
	}
}

// Validate checks that weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return errors.New("no signal weights configured")
	}
	var sum float64
	for name, v := range w {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight for %s must be non-negative, got %v", name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("signal weights must sum to 1, got %.4f", sum)
	}
	return nil
}

// Calibration labels recorded in a ScoreBreakdown.
const (
	CalibrationFloor    = "floor"
	CalibrationCeiling  = "ceiling"
	CalibrationFallback = "fallback"
)

// Calibration bounds the fused percentage: a raw score below Floor is lifted to
// Floor + raw·FloorSlope, a raw score above Ceiling is clamped to Ceiling, and
// FallbackScore replaces the result of a failed computation.
type Calibration struct {
	Floor         float64
	FloorSlope    float64
	Ceiling       float64
	FallbackScore float64
}

// DefaultCalibration returns the standard calibration.
func DefaultCalibration() Calibration {
	return Calibration{Floor: 20, FloorSlope: 0.5, Ceiling: 95, FallbackScore: 45}
}

// Apply calibrates a raw percentage and reports which rule applied.
func (c Calibration) Apply(raw float64) (float64, string) {
	switch {
	case math.IsNaN(raw) || math.IsInf(raw, 0):
		return c.FallbackScore, CalibrationFallback
	case raw < c.Floor:
		return c.Floor + math.Max(raw, 0)*c.FloorSlope, CalibrationFloor
	case raw > c.Ceiling:
		return c.Ceiling, CalibrationCeiling
	default:
		return raw, ""
	}
}

// Options configures an Engine.
type Options struct {
	Weights     Weights
	Calibration Calibration
	Logger      *slog.Logger
	// OnSignalFallback is called when a signal fails and its neutral value is used
	OnSignalFallback func(signal string)
}

// Engine fuses weighted signals into one calibrated score.
type Engine struct {
	signals    []Signal
	weights    Weights
	cal        Calibration
	logger     *slog.Logger
	onFallback func(string)
}

// NewEngine creates an engine over the standard signals of models.
func NewEngine(models *Models, opts Options) (*Engine, error) {
	if models == nil {
		return nil, errors.New("model context is required")
	}
	return NewEngineWithSignals(models.Signals(), opts)
}

// NewEngineWithSignals creates an engine over arbitrary signals. Every signal needs a weight.
func NewEngineWithSignals(signals []Signal, opts Options) (*Engine, error) {
	if opts.Weights == nil {
		opts.Weights = DefaultWeights()
	}
	if opts.Calibration == (Calibration{}) {
		opts.Calibration = DefaultCalibration()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	for _, s := range signals {
		if _, ok := opts.Weights[s.Name()]; !ok {
			return nil, fmt.Errorf("no weight configured for signal %s", s.Name())
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	onFallback := opts.OnSignalFallback
	if onFallback == nil {
		onFallback = func(string) {}
	}

	return &Engine{
		signals:    signals,
		weights:    opts.Weights,
		cal:        opts.Calibration,
		logger:     logger,
		onFallback: onFallback,
	}, nil
}

// Score returns the calibrated match percentage of resume against job together with
// a breakdown of every signal. Signals run concurrently; a failing signal contributes
// its neutral value and any other failure yields the calibration's fallback score.
func (e *Engine) Score(ctx context.Context, resume, job string, partition types.MatchPartition) (score float64, breakdown types.ScoreBreakdown) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("similarity scoring panicked", slog.Any("panic", r))
			score = e.cal.FallbackScore
			breakdown = types.ScoreBreakdown{Final: score, Calibration: CalibrationFallback}
		}
	}()

	in := Input{Resume: resume, Job: job, Partition: partition}
	values := make([]float64, len(e.signals))
	errs := make([]error, len(e.signals))

	var g errgroup.Group
	for i, s := range e.signals {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("signal %s panicked: %v", s.Name(), r)
				}
			}()
			values[i], errs[i] = s.Score(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	var raw float64
	breakdown.Signals = make([]types.SignalScore, 0, len(e.signals))
	for i, s := range e.signals {
		v, fallback := values[i], false
		if errs[i] != nil || math.IsNaN(v) {
			v, fallback = NeutralValue, true
			if errs[i] != nil && !errors.Is(errs[i], ErrNoEvidence) {
				e.logger.Warn("similarity signal failed, using neutral value",
					slog.String("signal", s.Name()), slog.Any("error", errs[i]))
				e.onFallback(s.Name())
			}
		}
		v = clamp01(v)
		w := e.weights[s.Name()]
		raw += v * w
		breakdown.Signals = append(breakdown.Signals, types.SignalScore{
			Name: s.Name(), Value: round(v, 4), Weight: w, Fallback: fallback,
		})
	}
	sort.SliceStable(breakdown.Signals, func(i, j int) bool {
		return breakdown.Signals[i].Weight > breakdown.Signals[j].Weight
	})

	raw *= 100
	score, breakdown.Calibration = e.cal.Apply(raw)
	score = round(score, 2)
	breakdown.Raw = round(raw, 2)
	breakdown.Final = score

	e.logger.Debug("similarity scored",
		slog.Float64("raw", breakdown.Raw),
		slog.Float64("final", score),
		slog.String("calibration", breakdown.Calibration))
	return score, breakdown
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
