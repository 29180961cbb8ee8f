package synthesis

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantveritas/markettruth/internal/weights"
)

// Engine combines normalized layer outputs into a single conviction using
// industry-specific weighting, structural override rules, and a heuristic
// belief update. It is pure given its inputs: one invocation per ticker, no
// shared mutable state.
type Engine struct {
	weights *weights.Table
}

// NewEngine creates a synthesis engine backed by the given weight table.
func NewEngine(table *weights.Table) *Engine {
	return &Engine{weights: table}
}

// Synthesize produces the full synthesis result for one ticker. Every layer
// in the map must already be normalized; given any well-formed layer set
// (including all-empty) it always returns a complete result.
func (e *Engine) Synthesize(ticker string, layers Layers, sector, industry string) Result {
	resolved := e.weights.Resolve(sector, industry)

	structural := AnalyzeStructure(layers)
	if structural.Disqualify {
		log.Warn().Str("ticker", ticker).
			Strs("override_rules", structural.OverrideRulesTriggered).
			Msg("Structural disqualification triggered")
	}

	weightedScore, breakdown := Score(layers, resolved)
	belief := ComputeBelief(layers, structural)
	conviction, action, reasoning := ResolveAction(weightedScore, structural, belief)

	var rawScore float64
	for _, layer := range layers {
		rawScore += layer.Score
	}

	result := Result{
		Ticker:         ticker,
		RunID:          uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		WeightedScore:  math.Round(weightedScore*100) / 100,
		RawScore:       rawScore,
		Conviction:     conviction,
		Action:         action,
		Reasoning:      reasoning,
		WeightsUsed:    resolved,
		ScoreBreakdown: breakdown,
		Structural:     structural,
		Belief:         belief,
		Disqualified:   structural.Disqualify,
		OverrideRules:  structural.OverrideRulesTriggered,
	}

	log.Info().Str("ticker", ticker).
		Float64("weighted_score", result.WeightedScore).
		Str("conviction", string(conviction)).
		Str("action", string(action)).
		Msg("Synthesis completed")

	return result
}
