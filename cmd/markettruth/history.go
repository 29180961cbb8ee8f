package main

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"github.com/quantveritas/markettruth/internal/temporal"
)

// historyFlags selects and configures the snapshot history backend shared by
// the analyze and delta commands.
type historyFlags struct {
	backend     string
	dir         string
	redisAddr   string
	postgresDSN string
}

func (h *historyFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&h.backend, "history", "file", "History backend (file|redis|postgres|none)")
	flags.StringVar(&h.dir, "history-dir", "data/history", "Snapshot directory for the file backend")
	flags.StringVar(&h.redisAddr, "redis-addr", "localhost:6379", "Redis address for the redis backend")
	flags.StringVar(&h.postgresDSN, "postgres-dsn", "", "Postgres DSN for the postgres backend")
}

// engine returns a temporal engine on the selected backend, or nil when
// history is disabled.
func (h *historyFlags) engine() (*temporal.Engine, error) {
	store, err := h.store()
	if err != nil || store == nil {
		return nil, err
	}
	return temporal.NewEngine(store), nil
}

func (h *historyFlags) store() (temporal.HistoryStore, error) {
	switch h.backend {
	case "none":
		return nil, nil
	case "file":
		return temporal.NewFileStore(h.dir)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: h.redisAddr})
		return temporal.NewRedisStore(client, ""), nil
	case "postgres":
		if h.postgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires --postgres-dsn")
		}
		db, err := sqlx.Connect("postgres", h.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return temporal.NewPostgresStore(db, 5*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", h.backend)
	}
}
