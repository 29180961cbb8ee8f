package application

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	monitor "github.com/quantveritas/markettruth/internal/interfaces/http"
	"github.com/quantveritas/markettruth/internal/provider"
	"github.com/quantveritas/markettruth/internal/schema"
	"github.com/quantveritas/markettruth/internal/synthesis"
	"github.com/quantveritas/markettruth/internal/temporal"
)

// Analyzer is one pluggable analysis layer. The framework treats analyzers as
// black boxes: any error is collapsed to a neutral empty layer so a single
// failing layer can never abort a run.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, ticker string) (schema.RawResult, error)
}

// AnalyzerFunc adapts a plain function into an Analyzer.
type AnalyzerFunc struct {
	LayerName string
	Fn        func(ctx context.Context, ticker string) (schema.RawResult, error)
}

func (a AnalyzerFunc) Name() string { return a.LayerName }

func (a AnalyzerFunc) Analyze(ctx context.Context, ticker string) (schema.RawResult, error) {
	return a.Fn(ctx, ticker)
}

// Report is the complete output of one analysis run. Temporal is nil until a
// ticker has at least two snapshots of history.
type Report struct {
	Ticker    string                        `json:"ticker"`
	Timestamp time.Time                     `json:"timestamp"`
	Layers    map[string]schema.LayerOutput `json:"layers"`
	Synthesis synthesis.Result              `json:"synthesis"`
	Temporal  *temporal.Delta               `json:"temporal,omitempty"`
}

// Config wires the framework's collaborators. Profiles, History, and Metrics
// are optional; a nil Profiles degrades to default weights, a nil History
// skips snapshots, a nil Metrics skips instrumentation.
type Config struct {
	Analyzers []Analyzer
	Profiles  provider.ProfileProvider
	Synthesis *synthesis.Engine
	History   *temporal.Engine
	Metrics   *monitor.MetricsRegistry
}

// Framework runs the full analysis pipeline for one ticker: analyzers in,
// normalized layers through synthesis, snapshot out.
type Framework struct {
	analyzers []Analyzer
	profiles  provider.ProfileProvider
	synthesis *synthesis.Engine
	history   *temporal.Engine
	metrics   *monitor.MetricsRegistry
}

// NewFramework creates a framework from the given config. Config.Synthesis
// must be set; everything else may be nil.
func NewFramework(config Config) *Framework {
	return &Framework{
		analyzers: config.Analyzers,
		profiles:  config.Profiles,
		synthesis: config.Synthesis,
		history:   config.History,
		metrics:   config.Metrics,
	}
}

// Run executes every analyzer, synthesizes the results, and appends a history
// snapshot. Analyzer and history failures are absorbed and logged; only a
// context-level failure surfaces as an error.
func (f *Framework) Run(ctx context.Context, ticker string) (*Report, error) {
	started := time.Now()

	layers := f.runAnalyzers(ctx, ticker)

	sector, industry := f.classify(ctx, ticker)
	result := f.synthesis.Synthesize(ticker, layers, sector, industry)

	if f.metrics != nil {
		f.metrics.SynthesisTotal.WithLabelValues(string(result.Conviction)).Inc()
		if result.Disqualified {
			f.metrics.Disqualifications.Inc()
		}
		for name, layer := range layers {
			f.metrics.LayerScore.WithLabelValues(name).Set(layer.Score)
		}
		f.metrics.SynthesisDuration.Observe(time.Since(started).Seconds())
	}

	report := &Report{
		Ticker:    ticker,
		Timestamp: result.Timestamp,
		Layers:    layers,
		Synthesis: result,
	}

	if f.history != nil {
		if err := f.history.SaveSnapshot(ctx, ticker, layers, result); err != nil {
			log.Error().Err(err).Str("ticker", ticker).Msg("Snapshot write failed")
			if f.metrics != nil {
				f.metrics.SnapshotErrors.Inc()
			}
		} else if f.metrics != nil {
			f.metrics.SnapshotWrites.Inc()
		}

		delta, err := f.history.Delta(ctx, ticker)
		if err != nil {
			log.Error().Err(err).Str("ticker", ticker).Msg("Delta computation failed")
		} else {
			report.Temporal = delta
		}
	}

	return report, ctx.Err()
}

// Delta exposes the temporal change analysis without running a new analysis.
// Returns nil when no history engine is configured or history is too short.
func (f *Framework) Delta(ctx context.Context, ticker string) (*temporal.Delta, error) {
	if f.history == nil {
		return nil, nil
	}
	return f.history.Delta(ctx, ticker)
}

func (f *Framework) runAnalyzers(ctx context.Context, ticker string) map[string]schema.LayerOutput {
	layers := make(map[string]schema.LayerOutput, len(f.analyzers))
	for _, analyzer := range f.analyzers {
		name := analyzer.Name()
		raw, err := analyzer.Analyze(ctx, ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Str("layer", name).
				Msg("Analyzer failed, substituting empty layer")
			if f.metrics != nil {
				f.metrics.AnalyzerErrors.WithLabelValues(name).Inc()
			}
			layers[name] = schema.CreateEmpty(err.Error())
			continue
		}
		layers[name] = schema.Normalize(raw)
	}
	return layers
}

func (f *Framework) classify(ctx context.Context, ticker string) (sector, industry string) {
	if f.profiles == nil {
		return "", ""
	}
	profile, err := f.profiles.GetProfile(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).
			Msg("Profile lookup failed, falling back to default weights")
		return "", ""
	}
	return profile.Sector, profile.Industry
}
