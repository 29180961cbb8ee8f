package synthesis

import (
	"math"

	"github.com/quantveritas/markettruth/internal/schema"
)

// Pattern names emitted by the amplification and consistency checks.
const (
	PatternStrongFundamentals = "STRONG_FUNDAMENTALS"
	PatternBroadImprovement   = "BROAD_IMPROVEMENT"
	PatternCompounderProfile  = "COMPOUNDER_PROFILE"
	PatternMixedSignals       = "MIXED_SIGNALS"
)

// overrideRule is one cross-layer conjunction. Rules are evaluated in order
// so the emitted message list is reproducible; the disqualify outcome is the
// OR across all matching disqualifying rules.
type overrideRule struct {
	name       string
	disqualify bool
	message    string
	match      func(l Layers) bool
}

// The rule battery is a closed, hand-authored set. Flag names, thresholds and
// conjunctions are load-bearing; do not generalize them.
var overrideRules = []overrideRule{
	{
		name:       "financial_distress_insider_selling",
		disqualify: true,
		message:    "FINANCIAL_DISTRESS + INSIDER_SELLING = Management bailing before bankruptcy",
		match: func(l Layers) bool {
			fin := l[schema.LayerFinancialTruth]
			mgmt := l[schema.LayerManagement]
			return (fin.RiskLevel == schema.RiskCritical || fin.RiskLevel == schema.RiskHigh) &&
				fin.HasRiskFlag("NEGATIVE_FREE_CASH_FLOW") &&
				mgmt.HasRiskFlag("INSIDER_HEAVY_SELLING")
		},
	},
	{
		name:       "terminal_decline",
		disqualify: true,
		message:    "DECLINING_REVENUE + CASH_FLOW_DETERIORATION = Business dying",
		match: func(l Layers) bool {
			return l[schema.LayerBusinessModel].HasRiskFlag("DECLINING_REVENUE") &&
				l[schema.LayerFinancialTruth].HasRiskFlag("REVENUE_UP_CASH_DOWN")
		},
	},
	{
		name:       "debt_service_failure",
		disqualify: true,
		message:    "NEGATIVE_FCF + HIGH_DEBT = Cannot service debt, distress imminent",
		match: func(l Layers) bool {
			fin := l[schema.LayerFinancialTruth]
			return fin.HasRiskFlag("NEGATIVE_FREE_CASH_FLOW") && fin.HasRiskFlag("HIGH_DEBT_TO_EBITDA")
		},
	},
	{
		name:       "death_spiral",
		disqualify: true,
		message:    "LOW_COVERAGE + DETERIORATING = Death spiral beginning",
		match: func(l Layers) bool {
			fin := l[schema.LayerFinancialTruth]
			return fin.HasRiskFlag("LOW_INTEREST_COVERAGE") && fin.Trajectory == schema.TrajectoryDeteriorating
		},
	},
	{
		// Warning only: commodity pricing without a moat is ugly but not
		// an automatic disqualifier.
		name:       "no_moat_commodity_pricing",
		disqualify: false,
		message:    "COMPETITIVE_PRESSURE + LOW_MARGINS = No moat, commodity pricing",
		match: func(l Layers) bool {
			comp := l[schema.LayerCompetitive]
			return (comp.RiskLevel == schema.RiskHigh || comp.RiskLevel == schema.RiskCritical) &&
				l[schema.LayerBusinessModel].HasRiskFlag("LOW_MARGINS")
		},
	},
}

// AnalyzeStructure runs the cross-layer rule battery: disqualifying override
// rules, amplification patterns, and the score-dispersion consistency check.
func AnalyzeStructure(layers Layers) StructuralAnalysis {
	analysis := StructuralAnalysis{
		OverrideRulesTriggered: []string{},
		PatternMatches:         []string{},
		CrossLayerSignals:      map[string]string{},
	}

	for _, rule := range overrideRules {
		if !rule.match(layers) {
			continue
		}
		if rule.disqualify {
			analysis.Disqualify = true
		}
		analysis.OverrideRulesTriggered = append(analysis.OverrideRulesTriggered, rule.message)
	}

	business := layers[schema.LayerBusinessModel]
	financial := layers[schema.LayerFinancialTruth]

	if business.Score >= 7 && financial.Score >= 7 {
		analysis.Amplify = true
		analysis.PatternMatches = append(analysis.PatternMatches, PatternStrongFundamentals)
	}

	improving, deteriorating := trajectoryCounts(layers)
	if improving >= 3 && deteriorating == 0 {
		analysis.Amplify = true
		analysis.PatternMatches = append(analysis.PatternMatches, PatternBroadImprovement)
	}

	if business.Score >= 8 && financial.Trajectory == schema.TrajectoryImproving {
		analysis.PatternMatches = append(analysis.PatternMatches, PatternCompounderProfile)
	}

	if len(layers) > 0 {
		stddev := scoreStdDev(layers)
		if stddev < 2 {
			analysis.CrossLayerSignals["consistency"] = "HIGH"
		} else if stddev > 4 {
			analysis.CrossLayerSignals["consistency"] = "CONFLICTING"
			analysis.PatternMatches = append(analysis.PatternMatches, PatternMixedSignals)
		}
	}

	return analysis
}

func trajectoryCounts(layers Layers) (improving, deteriorating int) {
	for _, layer := range layers {
		switch layer.Trajectory {
		case schema.TrajectoryImproving:
			improving++
		case schema.TrajectoryDeteriorating:
			deteriorating++
		}
	}
	return improving, deteriorating
}

// scoreStdDev is the population standard deviation of all present layer scores.
func scoreStdDev(layers Layers) float64 {
	if len(layers) == 0 {
		return 0
	}
	var sum float64
	for _, layer := range layers {
		sum += layer.Score
	}
	mean := sum / float64(len(layers))

	var variance float64
	for _, layer := range layers {
		d := layer.Score - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(layers)))
}
