package synthesis

import (
	"fmt"
	"strings"
)

// actionRule is one row of the decision table. Rows are evaluated top to
// bottom and the first match wins, so structural disqualification dominates
// regardless of score or belief.
type actionRule struct {
	name    string
	match   func(score float64, s StructuralAnalysis, b BeliefState) bool
	resolve func(score float64, s StructuralAnalysis, b BeliefState) (Conviction, Action, string)
}

var actionTable = []actionRule{
	{
		name: "structural_disqualification",
		match: func(_ float64, s StructuralAnalysis, _ BeliefState) bool {
			return s.Disqualify
		},
		resolve: func(_ float64, s StructuralAnalysis, _ BeliefState) (Conviction, Action, string) {
			return ConvictionAvoid, ActionDoNotTrade,
				fmt.Sprintf("Structural disqualifiers: %s", strings.Join(s.OverrideRulesTriggered, ", "))
		},
	},
	{
		name: "distress_risk",
		match: func(_ float64, _ StructuralAnalysis, b BeliefState) bool {
			return b.DistressProb > 0.20
		},
		resolve: func(_ float64, _ StructuralAnalysis, b BeliefState) (Conviction, Action, string) {
			return ConvictionShort, ActionShortCandidate,
				fmt.Sprintf("High bankruptcy risk (%.0f%%)", b.DistressProb*100)
		},
	},
	{
		name: "structural_bear",
		match: func(_ float64, _ StructuralAnalysis, b BeliefState) bool {
			return b.BearProb > 0.50
		},
		resolve: func(_ float64, _ StructuralAnalysis, b BeliefState) (Conviction, Action, string) {
			return ConvictionShort, ActionShortCandidate,
				fmt.Sprintf("Structural bear case (%.0f%% probability)", b.BearProb*100)
		},
	},
	{
		name: "high_conviction_bull",
		match: func(score float64, _ StructuralAnalysis, b BeliefState) bool {
			return b.BullProb > 0.60 && score >= 70
		},
		resolve: func(score float64, s StructuralAnalysis, b BeliefState) (Conviction, Action, string) {
			reasoning := fmt.Sprintf("High conviction structural winner (P=%.0f%%, Score=%.0f)",
				b.BullProb*100, score)
			if s.Amplify {
				reasoning += fmt.Sprintf(" | Amplified by: %s", strings.Join(s.PatternMatches, ", "))
			}
			return ConvictionHigh, ActionBuyHighConviction, reasoning
		},
	},
	{
		name: "solid_setup",
		match: func(score float64, _ StructuralAnalysis, _ BeliefState) bool {
			return score >= 65
		},
		resolve: func(score float64, _ StructuralAnalysis, b BeliefState) (Conviction, Action, string) {
			return ConvictionMedium, ActionBuyMedium,
				fmt.Sprintf("Solid setup (Score=%.0f, Bull P=%.0f%%)", score, b.BullProb*100)
		},
	},
	{
		name: "marginal",
		match: func(score float64, _ StructuralAnalysis, _ BeliefState) bool {
			return score >= 55
		},
		resolve: func(score float64, _ StructuralAnalysis, _ BeliefState) (Conviction, Action, string) {
			return ConvictionLow, ActionTradeOnly,
				fmt.Sprintf("Marginal case (Score=%.0f), short-term only", score)
		},
	},
	{
		name: "weak",
		match: func(score float64, _ StructuralAnalysis, _ BeliefState) bool {
			return score >= 40
		},
		resolve: func(score float64, _ StructuralAnalysis, _ BeliefState) (Conviction, Action, string) {
			return ConvictionAvoid, ActionSpeculationOnly,
				fmt.Sprintf("Weak case (Score=%.0f), too many red flags", score)
		},
	},
	{
		name: "poor_fundamentals",
		match: func(_ float64, _ StructuralAnalysis, _ BeliefState) bool {
			return true
		},
		resolve: func(score float64, _ StructuralAnalysis, _ BeliefState) (Conviction, Action, string) {
			return ConvictionAvoid, ActionDoNotTrade,
				fmt.Sprintf("Poor fundamentals (Score=%.0f)", score)
		},
	},
}

// ResolveAction maps (weighted score, structural analysis, belief state) to a
// conviction level, action, and reasoning string. Total function: the last
// table row always matches.
func ResolveAction(weightedScore float64, structural StructuralAnalysis, belief BeliefState) (Conviction, Action, string) {
	for _, rule := range actionTable {
		if rule.match(weightedScore, structural, belief) {
			return rule.resolve(weightedScore, structural, belief)
		}
	}
	// Unreachable: the final rule matches everything.
	return ConvictionAvoid, ActionDoNotTrade, "no decision rule matched"
}
