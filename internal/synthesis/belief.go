package synthesis

import (
	"math"

	"github.com/quantveritas/markettruth/internal/schema"
)

// Base rates before any layer evidence is applied.
const (
	priorBull     = 0.30
	priorBear     = 0.20
	priorDistress = 0.05
)

// ComputeBelief runs the heuristic multiplicative belief update. This is a
// deterministic multiplier scheme, not a calibrated model; the update order
// is load-bearing because a structural disqualification forces the
// probabilities last, discarding whatever the multipliers produced.
func ComputeBelief(layers Layers, structural StructuralAnalysis) BeliefState {
	bull := priorBull
	bear := priorBear
	distress := priorDistress

	// Financial layer drives distress.
	switch layers[schema.LayerFinancialTruth].RiskLevel {
	case schema.RiskCritical:
		distress *= 5
	case schema.RiskHigh:
		distress *= 3
	}

	// Business model drives the bull case. An absent layer counts as a
	// neutral 5 here, not as zero: no evidence must not read as a weak
	// business.
	businessScore := 5.0
	if business, ok := layers[schema.LayerBusinessModel]; ok {
		businessScore = business.Score
	}
	if businessScore >= 8 {
		bull *= 2
	} else if businessScore <= 3 {
		bull *= 0.3
		bear *= 2
	}

	improving, deteriorating := trajectoryCounts(layers)
	if improving >= 3 {
		bull *= 1.5
	}
	if deteriorating >= 3 {
		bear *= 2
		distress *= 1.5
	}

	// Forced last: overrides everything above.
	if structural.Disqualify {
		bull = 0.05
		bear = 0.70
		distress = math.Min(distress*2, 0.50)
	}

	if total := bull + bear + distress; total > 1 {
		bull /= total
		bear /= total
		distress /= total
	}

	return BeliefState{
		BullProb:     bull,
		BearProb:     bear,
		DistressProb: distress,
		NeutralProb:  1 - bull - bear - distress,
	}
}
