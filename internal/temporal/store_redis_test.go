package temporal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantveritas/markettruth/internal/synthesis"
)

func TestRedisStore_Append(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "")

	snap := Snapshot{
		ID:        "snap-1",
		Layers:    map[string]LayerSnapshot{},
		Synthesis: synthesis.Result{Ticker: "ACME", Conviction: synthesis.ConvictionLow},
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectRPush("markettruth:history:ACME", data).SetVal(1)

	require.NoError(t, store.Append(context.Background(), "ACME", snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LastN(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "mt:")

	older, err := json.Marshal(Snapshot{ID: "older"})
	require.NoError(t, err)
	newer, err := json.Marshal(Snapshot{ID: "newer"})
	require.NoError(t, err)

	mock.ExpectLRange("mt:ACME", -2, -1).SetVal([]string{string(older), string(newer)})

	snaps, err := store.LastN(context.Background(), "ACME", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "older", snaps[0].ID)
	assert.Equal(t, "newer", snaps[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "mt:")

	mock.ExpectLRange("mt:ACME", -1, -1).SetVal([]string{"{not json"})

	_, err := store.LastN(context.Background(), "ACME", 1)
	assert.Error(t, err)
}
