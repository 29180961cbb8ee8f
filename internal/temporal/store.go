package temporal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantveritas/markettruth/internal/schema"
	"github.com/quantveritas/markettruth/internal/synthesis"
)

// LayerSnapshot is the per-layer state captured in a history entry.
type LayerSnapshot struct {
	Score         float64           `json:"score"`
	Trajectory    schema.Trajectory `json:"trajectory"`
	RiskFlags     []string          `json:"risk_flags"`
	StrengthFlags []string          `json:"strength_flags"`
	RiskLevel     schema.RiskLevel  `json:"risk_level"`
}

// Snapshot is one append-only history entry for a ticker: the layer states
// plus the full synthesis result at one point in time.
type Snapshot struct {
	ID        string                   `json:"id"`
	Timestamp time.Time                `json:"timestamp"`
	Layers    map[string]LayerSnapshot `json:"layers"`
	Synthesis synthesis.Result         `json:"synthesis"`
}

// HistoryStore persists per-ticker snapshot logs. Implementations must
// support append and read-last-N; nothing else is required of the medium.
type HistoryStore interface {
	// Append adds a snapshot to the end of the ticker's history.
	Append(ctx context.Context, ticker string, snap Snapshot) error

	// LastN returns up to n most recent snapshots, oldest first.
	LastN(ctx context.Context, ticker string, n int) ([]Snapshot, error)
}

// FileStore keeps one append-only JSONL file per ticker, mirroring the
// flat-file history cache this engine grew out of.
type FileStore struct {
	dir string
}

// NewFileStore creates the history directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(ticker string) string {
	// Tickers come from user input; keep the filename tame.
	safe := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, ticker)
	return filepath.Join(s.dir, safe+".jsonl")
}

// Append writes the snapshot as one JSON line at the end of the ticker's log.
func (s *FileStore) Append(ctx context.Context, ticker string, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	f, err := os.OpenFile(s.path(ticker), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// LastN reads the ticker's log and returns the trailing n snapshots, oldest
// first. A missing file means no history, not an error.
func (s *FileStore) LastN(ctx context.Context, ticker string, n int) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(ticker))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	var all []Snapshot
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(line), &snap); err != nil {
			return nil, fmt.Errorf("corrupt history entry for %s: %w", ticker, err)
		}
		all = append(all, snap)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}
