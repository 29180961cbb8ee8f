package temporal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps per-ticker history in a Redis list: RPUSH to append,
// LRANGE from the tail to read the last N entries.
type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisStore wraps an existing Redis client. The prefix namespaces
// history keys, e.g. "markettruth:history:".
func NewRedisStore(client redis.Cmdable, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "markettruth:history:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(ticker string) string {
	return s.keyPrefix + ticker
}

// Append pushes the snapshot onto the tail of the ticker's list.
func (s *RedisStore) Append(ctx context.Context, ticker string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(ticker), data).Err(); err != nil {
		return fmt.Errorf("failed to append snapshot to redis: %w", err)
	}
	return nil
}

// LastN reads the trailing n list entries, oldest first.
func (s *RedisStore) LastN(ctx context.Context, ticker string, n int) ([]Snapshot, error) {
	start := int64(-n)
	if n <= 0 {
		start = 0
	}
	raw, err := s.client.LRange(ctx, s.key(ticker), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}

	snaps := make([]Snapshot, 0, len(raw))
	for _, entry := range raw {
		var snap Snapshot
		if err := json.Unmarshal([]byte(entry), &snap); err != nil {
			return nil, fmt.Errorf("corrupt history entry for %s: %w", ticker, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
