package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveAction_DisqualifyDominates(t *testing.T) {
	structural := StructuralAnalysis{
		Disqualify:             true,
		OverrideRulesTriggered: []string{"NEGATIVE_FCF + HIGH_DEBT = Cannot service debt, distress imminent"},
	}
	// Even with a perfect score and a bullish belief state.
	belief := BeliefState{BullProb: 0.90, BearProb: 0.02, DistressProb: 0.02, NeutralProb: 0.06}

	conviction, action, reasoning := ResolveAction(100, structural, belief)
	assert.Equal(t, ConvictionAvoid, conviction)
	assert.Equal(t, ActionDoNotTrade, action)
	assert.Contains(t, reasoning, "Structural disqualifiers:")
	assert.Contains(t, reasoning, "Cannot service debt")
}

func TestResolveAction_DecisionTable(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		belief     BeliefState
		conviction Conviction
		action     Action
	}{
		{
			name:       "distress probability above 20 percent",
			score:      80,
			belief:     BeliefState{BullProb: 0.70, DistressProb: 0.25},
			conviction: ConvictionShort,
			action:     ActionShortCandidate,
		},
		{
			name:       "bear probability above 50 percent",
			score:      60,
			belief:     BeliefState{BearProb: 0.55, DistressProb: 0.10},
			conviction: ConvictionShort,
			action:     ActionShortCandidate,
		},
		{
			name:       "high conviction needs bull belief and score",
			score:      75,
			belief:     BeliefState{BullProb: 0.65},
			conviction: ConvictionHigh,
			action:     ActionBuyHighConviction,
		},
		{
			name:       "strong score without bull belief is only medium",
			score:      75,
			belief:     BeliefState{BullProb: 0.40},
			conviction: ConvictionMedium,
			action:     ActionBuyMedium,
		},
		{
			name:       "bullish belief without score is only medium",
			score:      66,
			belief:     BeliefState{BullProb: 0.65},
			conviction: ConvictionMedium,
			action:     ActionBuyMedium,
		},
		{
			name:       "marginal band",
			score:      57,
			belief:     BeliefState{BullProb: 0.30},
			conviction: ConvictionLow,
			action:     ActionTradeOnly,
		},
		{
			name:       "speculation band",
			score:      45,
			belief:     BeliefState{BullProb: 0.30},
			conviction: ConvictionAvoid,
			action:     ActionSpeculationOnly,
		},
		{
			name:       "floor",
			score:      20,
			belief:     BeliefState{BullProb: 0.30},
			conviction: ConvictionAvoid,
			action:     ActionDoNotTrade,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conviction, action, reasoning := ResolveAction(tt.score, StructuralAnalysis{}, tt.belief)
			assert.Equal(t, tt.conviction, conviction)
			assert.Equal(t, tt.action, action)
			assert.NotEmpty(t, reasoning)
		})
	}
}

func TestResolveAction_AmplificationInReasoning(t *testing.T) {
	structural := StructuralAnalysis{
		Amplify:        true,
		PatternMatches: []string{PatternStrongFundamentals, PatternBroadImprovement},
	}
	belief := BeliefState{BullProb: 0.70}

	_, _, reasoning := ResolveAction(80, structural, belief)
	assert.Contains(t, reasoning, "Amplified by: STRONG_FUNDAMENTALS, BROAD_IMPROVEMENT")
}

func TestResolveAction_BandBoundaries(t *testing.T) {
	neutral := BeliefState{BullProb: 0.30}

	_, action, _ := ResolveAction(65, StructuralAnalysis{}, neutral)
	assert.Equal(t, ActionBuyMedium, action)

	_, action, _ = ResolveAction(55, StructuralAnalysis{}, neutral)
	assert.Equal(t, ActionTradeOnly, action)

	_, action, _ = ResolveAction(40, StructuralAnalysis{}, neutral)
	assert.Equal(t, ActionSpeculationOnly, action)

	_, action, _ = ResolveAction(39.99, StructuralAnalysis{}, neutral)
	assert.Equal(t, ActionDoNotTrade, action)
}
