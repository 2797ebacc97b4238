package similarity

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jonathan/resume-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSignal struct {
	name  string
	value float64
	err   error
	panic bool
}

func (s stubSignal) Name() string { return s.name }

func (s stubSignal) Score(context.Context, Input) (float64, error) {
	if s.panic {
		panic("boom")
	}
	return s.value, s.err
}

func stubs(semantic, coverage, lexical, overlap float64) []Signal {
	return []Signal{
		stubSignal{name: SignalSemantic, value: semantic},
		stubSignal{name: SignalCoverage, value: coverage},
		stubSignal{name: SignalLexical, value: lexical},
		stubSignal{name: SignalOverlap, value: overlap},
	}
}

func newStubEngine(t *testing.T, signals []Signal, opts Options) *Engine {
	t.Helper()
	e, err := NewEngineWithSignals(signals, opts)
	require.NoError(t, err)
	return e
}

func TestEngine_WeightedFusion(t *testing.T) {
	e := newStubEngine(t, stubs(0.8, 0.5, 0.2, 1.0), Options{})

	score, breakdown := e.Score(context.Background(), "r", "j", types.MatchPartition{})

	// 0.8·0.6 + 0.5·0.2 + 0.2·0.1 + 1.0·0.1 = 0.70
	assert.InDelta(t, 70.0, score, 1e-9)
	assert.Empty(t, breakdown.Calibration)
	require.Len(t, breakdown.Signals, 4)
	assert.Equal(t, SignalSemantic, breakdown.Signals[0].Name)
}

func TestEngine_Calibration(t *testing.T) {
	tests := []struct {
		name        string
		value       float64
		expected    float64
		calibration string
	}{
		{"floor lifts low scores", 0.1, 25.0, CalibrationFloor},
		{"zero lands on the floor", 0.0, 20.0, CalibrationFloor},
		{"above the floor unchanged", 0.25, 25.0, ""},
		{"ceiling clamps perfect scores", 1.0, 95.0, CalibrationCeiling},
		{"mid range unchanged", 0.5, 50.0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newStubEngine(t, stubs(tt.value, tt.value, tt.value, tt.value), Options{})
			score, breakdown := e.Score(context.Background(), "r", "j", types.MatchPartition{})
			assert.InDelta(t, tt.expected, score, 1e-9)
			assert.Equal(t, tt.calibration, breakdown.Calibration)
		})
	}
}

func TestEngine_FailingSignalUsesNeutralValue(t *testing.T) {
	var fallbacks atomic.Int32
	signals := []Signal{
		stubSignal{name: SignalSemantic, err: errors.New("embedding service down")},
		stubSignal{name: SignalCoverage, value: 0.5},
		stubSignal{name: SignalLexical, value: 0.5},
		stubSignal{name: SignalOverlap, err: ErrNoEvidence},
	}
	e := newStubEngine(t, signals, Options{OnSignalFallback: func(string) { fallbacks.Add(1) }})

	score, breakdown := e.Score(context.Background(), "r", "j", types.MatchPartition{})

	assert.InDelta(t, 50.0, score, 1e-9)
	assert.True(t, breakdown.Signals[0].Fallback)
	assert.Equal(t, int32(1), fallbacks.Load(), "missing evidence is not reported as a failure")
}

func TestEngine_PanickingSignalIsContained(t *testing.T) {
	signals := stubs(0.5, 0.5, 0.5, 0.5)
	signals[2] = stubSignal{name: SignalLexical, panic: true}
	e := newStubEngine(t, signals, Options{})

	score, _ := e.Score(context.Background(), "r", "j", types.MatchPartition{})
	assert.InDelta(t, 50.0, score, 1e-9)
}

func TestEngine_NaNSignal(t *testing.T) {
	e := newStubEngine(t, stubs(math.NaN(), 0.5, 0.5, 0.5), Options{})
	score, _ := e.Score(context.Background(), "r", "j", types.MatchPartition{})
	assert.InDelta(t, 50.0, score, 1e-9)
}

func TestCalibration_NaNFallsBack(t *testing.T) {
	score, label := DefaultCalibration().Apply(math.NaN())
	assert.Equal(t, 45.0, score)
	assert.Equal(t, CalibrationFallback, label)
}

func TestNewEngine_ValidatesWeights(t *testing.T) {
	_, err := NewEngineWithSignals(stubs(0, 0, 0, 0), Options{Weights: Weights{
		SignalSemantic: 0.5, SignalCoverage: 0.2, SignalLexical: 0.1, SignalOverlap: 0.1,
	}})
	assert.ErrorContains(t, err, "sum to 1")

	_, err = NewEngineWithSignals(stubs(0, 0, 0, 0), Options{Weights: Weights{SignalSemantic: 1}})
	assert.ErrorContains(t, err, "no weight configured")

	_, err = NewEngine(nil, Options{})
	assert.Error(t, err)
}

func TestEngine_RealSignalsAreBounded(t *testing.T) {
	e, err := NewEngine(NewModels(nil, NewVectorizer(0, 0)), Options{})
	require.NoError(t, err)

	inputs := []struct{ resume, job string }{
		{"", ""},
		{"!!!!! ????? 12345", "..... ;;;;; 67890"},
		{strings.Repeat("python ", 2000), "Python"},
		{"Senior Go engineer building Kubernetes operators.", "Senior Go engineer building Kubernetes operators."},
		{"ＰＹＴＨＯＮ — 日本語のテキスト", "Required: Python and SQL experience for data pipelines."},
	}

	for _, in := range inputs {
		score, _ := e.Score(context.Background(), in.resume, in.job, types.MatchPartition{})
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		assert.False(t, math.IsNaN(score))
	}
}

func TestEngine_Deterministic(t *testing.T) {
	e, err := NewEngine(NewModels(nil, NewVectorizer(0, 0)), Options{})
	require.NoError(t, err)

	resume := "Backend developer. Built REST APIs in Python with PostgreSQL and Docker."
	job := "Required: Python, Docker and SQL experience. Nice to have: Kubernetes on AWS."
	p := types.MatchPartition{Matched: []string{"python", "docker"}, Missing: []string{"kubernetes"}}

	first, _ := e.Score(context.Background(), resume, job, p)
	second, _ := e.Score(context.Background(), resume, job, p)
	assert.Equal(t, first, second)
}
