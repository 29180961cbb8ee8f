package schema

import "math"

// Trajectory describes the direction a layer's flag balance points at.
type Trajectory string

const (
	TrajectoryImproving     Trajectory = "improving"
	TrajectoryDeteriorating Trajectory = "deteriorating"
	TrajectoryStable        Trajectory = "stable"
	TrajectoryUnknown       Trajectory = "unknown"
)

// RiskLevel classifies a layer's red flag severity.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
	RiskMinimal  RiskLevel = "minimal"
)

// Canonical layer names. Every analyzer output is keyed by one of these;
// the scorer only aggregates the seven ScoredLayers.
const (
	LayerBusinessModel   = "business_model"
	LayerFinancialTruth  = "financial_truth"
	LayerManagement      = "management"
	LayerMarketStructure = "market_structure"
	LayerCompetitive     = "competitive"
	LayerMacro           = "macro"
	LayerRisk            = "risk"
	LayerTechnical       = "technical"
)

// ScoredLayers is the fixed set of layers that participate in weighted
// scoring. The technical layer is tracked but never scored.
var ScoredLayers = []string{
	LayerBusinessModel,
	LayerFinancialTruth,
	LayerManagement,
	LayerMarketStructure,
	LayerCompetitive,
	LayerMacro,
	LayerRisk,
}

// RawResult is the boundary type every analyzer produces. A nil Score means
// the analyzer did not assess quality and the neutral default (5) applies.
// Extra carries layer-specific detail the synthesis core never interprets.
type RawResult struct {
	Score      *float64
	RedFlags   []string
	GreenFlags []string
	Extra      map[string]interface{}
}

// LayerOutput is the standardized per-layer record. Every layer reaching the
// synthesis engine has passed through Normalize or CreateEmpty; nothing past
// this boundary branches on missing fields.
type LayerOutput struct {
	Score           float64                `json:"score"`
	NormalizedScore float64                `json:"normalized_score"`
	Trajectory      Trajectory             `json:"trajectory"`
	RiskLevel       RiskLevel              `json:"risk_level"`
	RiskFlags       []string               `json:"risk_flags"`
	StrengthFlags   []string               `json:"strength_flags"`
	CoreSignals     map[string]interface{} `json:"core_signals"`
}

// HasRiskFlag reports whether the layer carries the given red flag.
func (l LayerOutput) HasRiskFlag(flag string) bool {
	for _, f := range l.RiskFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// criticalFlags short-circuit the risk scan to critical.
var criticalFlags = map[string]bool{
	"NEGATIVE_FREE_CASH_FLOW": true,
	"LOW_INTEREST_COVERAGE":   true,
	"REVENUE_UP_CASH_DOWN":    true,
	"DECLINING_REVENUE":       true,
	"BANKRUPTCY_RISK":         true,
}

// highRiskFlags mark a layer high risk unless a critical flag appears later
// in the scan.
var highRiskFlags = map[string]bool{
	"HIGH_DEBT_TO_EBITDA":   true,
	"SLOW_COLLECTIONS":      true,
	"INVENTORY_BUILDING":    true,
	"INSIDER_HEAVY_SELLING": true,
}

// reservedKeys never surface in CoreSignals.
var reservedKeys = map[string]bool{
	"score":       true,
	"red_flags":   true,
	"green_flags": true,
	"timestamp":   true,
	"ticker":      true,
	"error":       true,
}

// Normalize converts a raw analyzer result into the standard layer record.
// Pure function: the same input always yields the same output.
func Normalize(raw RawResult) LayerOutput {
	score := 5.0
	if raw.Score != nil {
		score = *raw.Score
	}

	green := float64(len(raw.GreenFlags))
	red := float64(len(raw.RedFlags))

	trajectory := TrajectoryUnknown
	switch {
	case green > red*1.5:
		trajectory = TrajectoryImproving
	case red > green*1.5:
		trajectory = TrajectoryDeteriorating
	case score > 0:
		// No flags at all lands here too; "no evidence" and "balanced
		// evidence" are deliberately conflated.
		trajectory = TrajectoryStable
	}

	level := RiskMinimal
	for _, flag := range raw.RedFlags {
		if criticalFlags[flag] {
			level = RiskCritical
			break
		}
		if highRiskFlags[flag] {
			level = RiskHigh
		}
	}
	if level == RiskMinimal && len(raw.RedFlags) > 3 {
		level = RiskMedium
	} else if level == RiskMinimal && len(raw.RedFlags) > 0 {
		level = RiskLow
	}

	signals := make(map[string]interface{})
	for k, v := range raw.Extra {
		if !reservedKeys[k] {
			signals[k] = v
		}
	}

	return LayerOutput{
		Score:           score,
		NormalizedScore: math.Round(score/10*100) / 100,
		Trajectory:      trajectory,
		RiskLevel:       level,
		RiskFlags:       append([]string(nil), raw.RedFlags...),
		StrengthFlags:   append([]string(nil), raw.GreenFlags...),
		CoreSignals:     signals,
	}
}

// CreateEmpty returns the neutral layer record used when an analyzer errored.
// It guarantees the scorer never sees a missing layer.
func CreateEmpty(reason string) LayerOutput {
	return LayerOutput{
		Score:           5,
		NormalizedScore: 0.5,
		Trajectory:      TrajectoryUnknown,
		RiskLevel:       RiskMedium,
		RiskFlags:       []string{},
		StrengthFlags:   []string{},
		CoreSignals:     map[string]interface{}{"note": reason},
	}
}
