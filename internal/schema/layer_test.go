package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(v float64) *float64 { return &v }

func TestNormalize_TrajectoryRules(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawResult
		expected Trajectory
	}{
		{
			name:     "green flags dominate",
			raw:      RawResult{Score: score(9), GreenFlags: []string{"A", "B", "C"}},
			expected: TrajectoryImproving,
		},
		{
			name:     "red flags dominate",
			raw:      RawResult{Score: score(4), RedFlags: []string{"A", "B", "C"}, GreenFlags: []string{"D"}},
			expected: TrajectoryDeteriorating,
		},
		{
			name:     "balanced flags with positive score",
			raw:      RawResult{Score: score(6), RedFlags: []string{"A"}, GreenFlags: []string{"B"}},
			expected: TrajectoryStable,
		},
		{
			// No flags and balanced flags are conflated on purpose.
			name:     "no flags with positive score",
			raw:      RawResult{Score: score(5)},
			expected: TrajectoryStable,
		},
		{
			name:     "no flags with zero score",
			raw:      RawResult{Score: score(0)},
			expected: TrajectoryUnknown,
		},
		{
			// 2 green vs 1 red: 2 > 1.5 so improving.
			name:     "ratio boundary just above",
			raw:      RawResult{Score: score(5), GreenFlags: []string{"A", "B"}, RedFlags: []string{"C"}},
			expected: TrajectoryImproving,
		},
		{
			// 3 green vs 2 red: 3 == 3.0 is not > so stable.
			name:     "ratio boundary exact",
			raw:      RawResult{Score: score(5), GreenFlags: []string{"A", "B", "C"}, RedFlags: []string{"D", "E"}},
			expected: TrajectoryStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.raw)
			assert.Equal(t, tt.expected, out.Trajectory)
		})
	}
}

func TestNormalize_RiskLevels(t *testing.T) {
	tests := []struct {
		name     string
		redFlags []string
		expected RiskLevel
	}{
		{"no flags", nil, RiskMinimal},
		{"one benign flag", []string{"SOMETHING_MINOR"}, RiskLow},
		{"four benign flags", []string{"A", "B", "C", "D"}, RiskMedium},
		{"high risk flag", []string{"HIGH_DEBT_TO_EBITDA"}, RiskHigh},
		{"critical flag", []string{"NEGATIVE_FREE_CASH_FLOW"}, RiskCritical},
		{"critical wins over high", []string{"HIGH_DEBT_TO_EBITDA", "BANKRUPTCY_RISK"}, RiskCritical},
		{"high then benign stays high", []string{"INSIDER_HEAVY_SELLING", "A", "B", "C", "D"}, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(RawResult{Score: score(5), RedFlags: tt.redFlags})
			assert.Equal(t, tt.expected, out.RiskLevel)
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := RawResult{
		Score:      score(7.3),
		RedFlags:   []string{"SLOW_COLLECTIONS"},
		GreenFlags: []string{"OCF_ACCELERATING", "DEBT_FREE_OR_NET_CASH"},
		Extra:      map[string]interface{}{"fcf_margin": 0.21, "ticker": "IGNORED"},
	}

	first := Normalize(raw)
	second := Normalize(raw)
	assert.Equal(t, first, second)

	assert.InDelta(t, 0.73, first.NormalizedScore, 1e-9)
	assert.Equal(t, TrajectoryStable, first.Trajectory)
	assert.Equal(t, RiskHigh, first.RiskLevel)
}

func TestNormalize_CoreSignalsExcludeReservedKeys(t *testing.T) {
	raw := RawResult{
		Score: score(6),
		Extra: map[string]interface{}{
			"score":       99,
			"red_flags":   []string{"X"},
			"green_flags": []string{"Y"},
			"timestamp":   "2026-01-01",
			"ticker":      "ACME",
			"error":       "boom",
			"moat_rating": "wide",
		},
	}

	out := Normalize(raw)
	require.Len(t, out.CoreSignals, 1)
	assert.Equal(t, "wide", out.CoreSignals["moat_rating"])
}

func TestNormalize_MissingScoreDefaultsToNeutral(t *testing.T) {
	out := Normalize(RawResult{})
	assert.Equal(t, 5.0, out.Score)
	assert.Equal(t, 0.5, out.NormalizedScore)
}

func TestCreateEmpty_IdempotentAcrossReasons(t *testing.T) {
	for _, reason := range []string{"No data", "rate limited", ""} {
		out := CreateEmpty(reason)
		assert.Equal(t, 5.0, out.Score)
		assert.Equal(t, 0.5, out.NormalizedScore)
		assert.Equal(t, TrajectoryUnknown, out.Trajectory)
		assert.Equal(t, RiskMedium, out.RiskLevel)
		assert.Empty(t, out.RiskFlags)
		assert.Empty(t, out.StrengthFlags)
		assert.Equal(t, reason, out.CoreSignals["note"])
	}
}
