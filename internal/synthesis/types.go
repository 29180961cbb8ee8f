package synthesis

import (
	"time"

	"github.com/quantveritas/markettruth/internal/schema"
)

// Conviction is the engine's confidence-weighted recommendation class.
type Conviction string

const (
	ConvictionHigh   Conviction = "HIGH"
	ConvictionMedium Conviction = "MEDIUM"
	ConvictionLow    Conviction = "LOW"
	ConvictionAvoid  Conviction = "AVOID"
	ConvictionShort  Conviction = "SHORT"
)

// Action is the recommended trade posture.
type Action string

const (
	ActionBuyHighConviction Action = "BUY_HIGH_CONVICTION"
	ActionBuyMedium         Action = "BUY_MEDIUM"
	ActionTradeOnly         Action = "TRADE_ONLY"
	ActionSpeculationOnly   Action = "SPECULATION_ONLY"
	ActionDoNotTrade        Action = "DO_NOT_TRADE"
	ActionShortCandidate    Action = "SHORT_CANDIDATE"
)

// StructuralAnalysis is the result of the cross-layer rule battery.
type StructuralAnalysis struct {
	Disqualify             bool              `json:"disqualify"`
	Amplify                bool              `json:"amplify"`
	OverrideRulesTriggered []string          `json:"override_rules_triggered"`
	PatternMatches         []string          `json:"pattern_matches"`
	CrossLayerSignals      map[string]string `json:"cross_layer_signals"`
}

// BeliefState holds the heuristic outcome probabilities. After Compute the
// four probabilities always sum to 1.
type BeliefState struct {
	BullProb     float64 `json:"bull_prob"`
	BearProb     float64 `json:"bear_prob"`
	DistressProb float64 `json:"distress_prob"`
	NeutralProb  float64 `json:"neutral_prob"`
}

// LayerContribution records one layer's share of the weighted score.
type LayerContribution struct {
	Raw      float64 `json:"raw"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Result is the synthesis engine's complete output for one ticker.
type Result struct {
	Ticker         string                       `json:"ticker"`
	RunID          string                       `json:"run_id"`
	Timestamp      time.Time                    `json:"timestamp"`
	WeightedScore  float64                      `json:"weighted_score"`
	RawScore       float64                      `json:"raw_score"`
	Conviction     Conviction                   `json:"conviction"`
	Action         Action                       `json:"action"`
	Reasoning      string                       `json:"reasoning"`
	WeightsUsed    map[string]float64           `json:"weights_used"`
	ScoreBreakdown map[string]LayerContribution `json:"score_breakdown"`
	Structural     StructuralAnalysis           `json:"structural_analysis"`
	Belief         BeliefState                  `json:"belief_state"`
	Disqualified   bool                         `json:"disqualified"`
	OverrideRules  []string                     `json:"override_rules"`
}

// Layers is shorthand for a normalized layer set keyed by canonical name.
type Layers = map[string]schema.LayerOutput
