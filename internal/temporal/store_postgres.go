package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps history in a snapshots table with the full snapshot as
// jsonb. Insertion order is the log order.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS synthesis_snapshots (
//	    id BIGSERIAL PRIMARY KEY,
//	    ticker TEXT NOT NULL,
//	    ts TIMESTAMPTZ NOT NULL,
//	    snapshot JSONB NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS idx_synthesis_snapshots_ticker_id
//	    ON synthesis_snapshots (ticker, id DESC);
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore wraps an existing database handle.
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

// Append inserts one snapshot row for the ticker.
func (s *PostgresStore) Append(ctx context.Context, ticker string, snap Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `INSERT INTO synthesis_snapshots (ticker, ts, snapshot) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, ticker, snap.Timestamp, data); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// LastN returns the ticker's most recent n snapshots, oldest first.
func (s *PostgresStore) LastN(ctx context.Context, ticker string, n int) ([]Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// LIMIT NULL means no limit; non-positive n returns full history to
	// match the other stores.
	var limit interface{}
	if n > 0 {
		limit = n
	}
	query := `SELECT snapshot FROM synthesis_snapshots
	          WHERE ticker = $1 ORDER BY id DESC LIMIT $2`
	rows, err := s.db.QueryxContext(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("corrupt snapshot row for %s: %w", ticker, err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}

	// Query returns newest first; callers expect oldest first.
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}
