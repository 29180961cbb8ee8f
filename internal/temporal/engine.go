package temporal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantveritas/markettruth/internal/schema"
	"github.com/quantveritas/markettruth/internal/synthesis"
)

// Momentum direction and risk drift labels.
const (
	DirectionImproving     = "IMPROVING"
	DirectionDeteriorating = "DETERIORATING"
	DirectionStable        = "STABLE"

	Accelerating = "ACCELERATING"
	Decelerating = "DECELERATING"
	Steady       = "STEADY"

	DriftPersistentlyRisky = "PERSISTENTLY_RISKY"
)

// LayerChange is the score movement of one layer between two snapshots.
type LayerChange struct {
	Previous           float64           `json:"previous"`
	Latest             float64           `json:"latest"`
	Delta              float64           `json:"delta"`
	Direction          string            `json:"direction"`
	TrajectoryPrevious schema.Trajectory `json:"trajectory_previous"`
	TrajectoryLatest   schema.Trajectory `json:"trajectory_latest"`
}

// Momentum summarizes score movement across all layers.
type Momentum struct {
	AverageLayerDelta float64 `json:"average_layer_delta"`
	Direction         string  `json:"direction"`
	Acceleration      string  `json:"acceleration"`
}

// LevelChange records a risk level transition for one layer.
type LevelChange struct {
	From schema.RiskLevel `json:"from"`
	To   schema.RiskLevel `json:"to"`
}

// RiskDrift is the flag-set movement between two snapshots.
type RiskDrift struct {
	NewRisks        []string               `json:"new_risks"`
	ResolvedRisks   []string               `json:"resolved_risks"`
	PersistentRisks []string               `json:"persistent_risks"`
	RiskLevelChange map[string]LevelChange `json:"risk_level_change"`
	OverallDrift    string                 `json:"overall_drift"`
}

// ConvictionChange records a conviction/action transition.
type ConvictionChange struct {
	PreviousConviction synthesis.Conviction `json:"previous_conviction"`
	LatestConviction   synthesis.Conviction `json:"latest_conviction"`
	PreviousAction     synthesis.Action     `json:"previous_action"`
	LatestAction       synthesis.Action     `json:"latest_action"`
	Changed            bool                 `json:"changed"`
}

// Summary is the deterministic human-readable digest of a delta.
type Summary struct {
	Headline       string   `json:"headline"`
	KeyChanges     []string `json:"key_changes"`
	Recommendation string   `json:"recommendation"`
}

// Delta is the full change analysis between the two most recent snapshots.
type Delta struct {
	TimestampLatest   time.Time              `json:"timestamp_latest"`
	TimestampPrevious time.Time              `json:"timestamp_previous"`
	LayerChanges      map[string]LayerChange `json:"layer_changes"`
	Momentum          Momentum               `json:"momentum"`
	RiskDrift         RiskDrift              `json:"risk_drift"`
	ConvictionChange  ConvictionChange       `json:"conviction_change"`
	Summary           Summary                `json:"summary"`
}

// Engine persists synthesis snapshots and computes deltas between the two
// most recent ones. Writes are serialized per ticker so concurrent analyses
// of the same entity cannot lose updates.
type Engine struct {
	store HistoryStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a temporal engine on the given history store.
func NewEngine(store HistoryStore) *Engine {
	return &Engine{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) tickerLock(ticker string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[ticker]
	if !ok {
		l = &sync.Mutex{}
		e.locks[ticker] = l
	}
	return l
}

// SaveSnapshot appends the current layer states and synthesis result to the
// ticker's history log.
func (e *Engine) SaveSnapshot(ctx context.Context, ticker string, layers map[string]schema.LayerOutput, result synthesis.Result) error {
	l := e.tickerLock(ticker)
	l.Lock()
	defer l.Unlock()

	snap := Snapshot{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Layers:    make(map[string]LayerSnapshot, len(layers)),
		Synthesis: result,
	}
	for name, layer := range layers {
		snap.Layers[name] = LayerSnapshot{
			Score:         layer.Score,
			Trajectory:    layer.Trajectory,
			RiskFlags:     layer.RiskFlags,
			StrengthFlags: layer.StrengthFlags,
			RiskLevel:     layer.RiskLevel,
		}
	}

	if err := e.store.Append(ctx, ticker, snap); err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", ticker, err)
	}

	log.Debug().Str("ticker", ticker).Str("snapshot_id", snap.ID).Msg("Saved analysis snapshot")
	return nil
}

// Delta computes the change analysis between the two most recent snapshots.
// Returns nil (no error) when fewer than two snapshots exist.
func (e *Engine) Delta(ctx context.Context, ticker string) (*Delta, error) {
	snaps, err := e.store.LastN(ctx, ticker, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", ticker, err)
	}
	if len(snaps) < 2 {
		return nil, nil
	}

	previous, latest := snaps[len(snaps)-2], snaps[len(snaps)-1]
	return computeDelta(previous, latest), nil
}

func computeDelta(previous, latest Snapshot) *Delta {
	delta := &Delta{
		TimestampLatest:   latest.Timestamp,
		TimestampPrevious: previous.Timestamp,
		LayerChanges:      make(map[string]LayerChange),
	}

	var scoreDeltas []float64
	for name, latestLayer := range latest.Layers {
		previousLayer, ok := previous.Layers[name]
		if !ok {
			continue
		}

		d := latestLayer.Score - previousLayer.Score
		scoreDeltas = append(scoreDeltas, d)

		direction := "stable"
		if d > 0 {
			direction = "improving"
		} else if d < 0 {
			direction = "deteriorating"
		}

		delta.LayerChanges[name] = LayerChange{
			Previous:           previousLayer.Score,
			Latest:             latestLayer.Score,
			Delta:              math.Round(d*100) / 100,
			Direction:          direction,
			TrajectoryPrevious: previousLayer.Trajectory,
			TrajectoryLatest:   latestLayer.Trajectory,
		}
	}

	if len(scoreDeltas) > 0 {
		var sum float64
		for _, d := range scoreDeltas {
			sum += d
		}
		avg := sum / float64(len(scoreDeltas))

		direction := DirectionStable
		if avg > 0.5 {
			direction = DirectionImproving
		} else if avg < -0.5 {
			direction = DirectionDeteriorating
		}

		// Acceleration thresholds reproduced as found: with direction
		// cut at ±0.5 and DECELERATING only below -1.0, the label
		// never reads DECELERATING for a merely-stable average. Known
		// quirk, kept for parity.
		acceleration := Steady
		if avg > 1.0 {
			acceleration = Accelerating
		} else if avg < -1.0 {
			acceleration = Decelerating
		}

		delta.Momentum = Momentum{
			AverageLayerDelta: math.Round(avg*100) / 100,
			Direction:         direction,
			Acceleration:      acceleration,
		}
	}

	delta.RiskDrift = analyzeRiskDrift(latest.Layers, previous.Layers)

	delta.ConvictionChange = ConvictionChange{
		PreviousConviction: previous.Synthesis.Conviction,
		LatestConviction:   latest.Synthesis.Conviction,
		PreviousAction:     previous.Synthesis.Action,
		LatestAction:       latest.Synthesis.Action,
		Changed:            latest.Synthesis.Conviction != previous.Synthesis.Conviction,
	}

	delta.Summary = summarize(delta)
	return delta
}

func analyzeRiskDrift(latestLayers, previousLayers map[string]LayerSnapshot) RiskDrift {
	drift := RiskDrift{
		NewRisks:        []string{},
		ResolvedRisks:   []string{},
		PersistentRisks: []string{},
		RiskLevelChange: make(map[string]LevelChange),
		OverallDrift:    DirectionStable,
	}

	allLatest := make(map[string]bool)
	allPrevious := make(map[string]bool)

	for name, latestLayer := range latestLayers {
		previousLayer, ok := previousLayers[name]
		if !ok {
			continue
		}

		for _, f := range latestLayer.RiskFlags {
			allLatest[f] = true
		}
		for _, f := range previousLayer.RiskFlags {
			allPrevious[f] = true
		}

		if latestLayer.RiskLevel != previousLayer.RiskLevel {
			drift.RiskLevelChange[name] = LevelChange{
				From: previousLayer.RiskLevel,
				To:   latestLayer.RiskLevel,
			}
		}
	}

	for f := range allLatest {
		if allPrevious[f] {
			drift.PersistentRisks = append(drift.PersistentRisks, f)
		} else {
			drift.NewRisks = append(drift.NewRisks, f)
		}
	}
	for f := range allPrevious {
		if !allLatest[f] {
			drift.ResolvedRisks = append(drift.ResolvedRisks, f)
		}
	}

	// Set iteration is unordered; sort for deterministic output.
	sort.Strings(drift.NewRisks)
	sort.Strings(drift.ResolvedRisks)
	sort.Strings(drift.PersistentRisks)

	switch {
	case len(drift.NewRisks) > len(drift.ResolvedRisks):
		drift.OverallDrift = DirectionDeteriorating
	case len(drift.ResolvedRisks) > len(drift.NewRisks):
		drift.OverallDrift = DirectionImproving
	case len(drift.PersistentRisks) > 5:
		drift.OverallDrift = DriftPersistentlyRisky
	}

	return drift
}

func summarize(delta *Delta) Summary {
	summary := Summary{KeyChanges: []string{}}

	momentumDir := delta.Momentum.Direction
	riskDir := delta.RiskDrift.OverallDrift

	switch {
	case momentumDir == DirectionImproving && (riskDir == DirectionImproving || riskDir == DirectionStable):
		summary.Headline = "[^] IMPROVING: Fundamentals strengthening"
	case momentumDir == DirectionDeteriorating && (riskDir == DirectionDeteriorating || riskDir == DriftPersistentlyRisky):
		summary.Headline = "[v] DETERIORATING: Red flags multiplying"
	case momentumDir == DirectionStable && riskDir == DirectionStable:
		summary.Headline = "[->] STABLE: No significant changes"
	default:
		summary.Headline = "[!] MIXED: Conflicting signals"
	}

	if len(delta.RiskDrift.NewRisks) > 0 {
		summary.KeyChanges = append(summary.KeyChanges,
			fmt.Sprintf("New risks: %s", joinFirst(delta.RiskDrift.NewRisks, 3)))
	}
	if len(delta.RiskDrift.ResolvedRisks) > 0 {
		summary.KeyChanges = append(summary.KeyChanges,
			fmt.Sprintf("Resolved risks: %s", joinFirst(delta.RiskDrift.ResolvedRisks, 3)))
	}
	if delta.ConvictionChange.Changed {
		summary.KeyChanges = append(summary.KeyChanges,
			fmt.Sprintf("Conviction changed: %s -> %s",
				delta.ConvictionChange.PreviousConviction,
				delta.ConvictionChange.LatestConviction))
	}

	switch momentumDir {
	case DirectionImproving:
		summary.Recommendation = "Consider increasing position or initiating"
	case DirectionDeteriorating:
		summary.Recommendation = "Consider reducing position or exiting"
	default:
		summary.Recommendation = "Hold current position, monitor closely"
	}

	return summary
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
