package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantveritas/markettruth/internal/schema"
)

func allLayersAt(score float64) Layers {
	layers := make(Layers, len(schema.ScoredLayers))
	for _, name := range schema.ScoredLayers {
		layers[name] = layer(score, nil, nil)
	}
	return layers
}

func flatOne() map[string]float64 {
	w := make(map[string]float64, len(schema.ScoredLayers))
	for _, name := range schema.ScoredLayers {
		w[name] = 1.0
	}
	return w
}

func TestScore_NeutralLayersYieldExactly50(t *testing.T) {
	score, breakdown := Score(allLayersAt(5), flatOne())
	assert.Equal(t, 50.0, score)
	require.Len(t, breakdown, 7)
	for name, contribution := range breakdown {
		assert.Equal(t, 5.0, contribution.Raw, name)
		assert.Equal(t, 1.0, contribution.Weight, name)
		assert.Equal(t, 5.0, contribution.Weighted, name)
	}
}

func TestScore_Bounds(t *testing.T) {
	weights := map[string]float64{
		schema.LayerBusinessModel:  4.0,
		schema.LayerFinancialTruth: 0.5,
		schema.LayerRisk:           2.0,
	}

	low, _ := Score(allLayersAt(0), weights)
	assert.Equal(t, 0.0, low)

	high, _ := Score(allLayersAt(10), weights)
	assert.InDelta(t, 100.0, high, 1e-9)

	mid, _ := Score(allLayersAt(7.3), weights)
	assert.GreaterOrEqual(t, mid, 0.0)
	assert.LessOrEqual(t, mid, 100.0)
}

func TestScore_MissingWeightDefaultsToOne(t *testing.T) {
	layers := Layers{
		schema.LayerBusinessModel: layer(8, nil, nil),
		schema.LayerMacro:         layer(4, nil, nil),
	}
	weights := map[string]float64{schema.LayerBusinessModel: 3.0}

	score, breakdown := Score(layers, weights)
	// (8*3 + 4*1) / (10 * 4) * 100 = 70
	assert.InDelta(t, 70.0, score, 1e-9)
	assert.Equal(t, 1.0, breakdown[schema.LayerMacro].Weight)
}

func TestScore_IgnoresNonCanonicalLayers(t *testing.T) {
	layers := Layers{
		schema.LayerBusinessModel: layer(10, nil, nil),
		schema.LayerTechnical:     layer(0, nil, nil),
	}
	score, breakdown := Score(layers, flatOne())
	assert.InDelta(t, 100.0, score, 1e-9)
	assert.NotContains(t, breakdown, schema.LayerTechnical)
}

func TestScore_NoLayersDegradesToNeutral(t *testing.T) {
	score, breakdown := Score(Layers{}, flatOne())
	assert.Equal(t, 50.0, score)
	assert.Empty(t, breakdown)
}
