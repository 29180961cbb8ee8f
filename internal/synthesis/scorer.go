package synthesis

import "github.com/quantveritas/markettruth/internal/schema"

// Score computes the industry-weighted aggregate on a 0-100 scale along with
// a per-layer contribution breakdown for auditability.
//
// Only the seven canonical layers participate; a layer missing from the
// weight map gets weight 1.0. With no scorable layers (or zero total weight)
// the score degrades to a neutral 50.
func Score(layers Layers, weights map[string]float64) (float64, map[string]LayerContribution) {
	var weightedTotal, weightSum float64
	breakdown := make(map[string]LayerContribution)

	for _, name := range schema.ScoredLayers {
		layer, ok := layers[name]
		if !ok {
			continue
		}

		weight, ok := weights[name]
		if !ok {
			weight = 1.0
		}

		weighted := layer.Score * weight
		weightedTotal += weighted
		weightSum += weight

		breakdown[name] = LayerContribution{
			Raw:      layer.Score,
			Weight:   weight,
			Weighted: weighted,
		}
	}

	// Max possible is 10 * sum(weights).
	maxPossible := 10 * weightSum
	if maxPossible <= 0 {
		return 50, breakdown
	}
	return weightedTotal / maxPossible * 100, breakdown
}
