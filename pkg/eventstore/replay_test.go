package eventstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func appendOrderHistory(t *testing.T, store eventstore.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Created{
		EntityID: "42",
		State:    map[string]any{"status": "pending", "total": 99.5},
	}))
	require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Updated{
		EntityID: "42",
		Changes: map[string]eventstore.Change{
			"status": {Old: "pending", New: "shipped"},
		},
	}))
}

func TestReplay(t *testing.T) {
	ctx := context.Background()

	t.Run("folds created and updated events", func(t *testing.T) {
		store := memory.NewStore()
		appendOrderHistory(t, store)

		replayer := eventstore.NewReplayer(store, eventstore.Config{}, zap.NewNop())
		agg, err := replayer.Replay(ctx, "Order", "42")

		require.NoError(t, err)
		assert.Equal(t, 2, agg.Version)
		assert.False(t, agg.Deleted)
		assert.Equal(t, "shipped", agg.State["status"])
		assert.Equal(t, 99.5, agg.State["total"])
	})

	t.Run("delete marks the aggregate", func(t *testing.T) {
		store := memory.NewStore()
		appendOrderHistory(t, store)
		require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Deleted{
			EntityID: "42",
			Reason:   "cancelled by customer",
		}))

		replayer := eventstore.NewReplayer(store, eventstore.Config{}, zap.NewNop())
		agg, err := replayer.Replay(ctx, "Order", "42")

		require.NoError(t, err)
		assert.Equal(t, 3, agg.Version)
		assert.True(t, agg.Deleted)
	})

	t.Run("unknown stream yields empty state", func(t *testing.T) {
		store := memory.NewStore()

		replayer := eventstore.NewReplayer(store, eventstore.Config{}, zap.NewNop())
		agg, err := replayer.Replay(ctx, "Order", "missing")

		require.NoError(t, err)
		assert.Equal(t, 0, agg.Version)
		assert.Empty(t, agg.State)
	})

	t.Run("generic events keep state untouched", func(t *testing.T) {
		store := memory.NewStore()
		appendOrderHistory(t, store)
		require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Generic{
			Name: "OrderExportedEvent",
			Body: map[string]any{"target": "warehouse"},
		}))

		replayer := eventstore.NewReplayer(store, eventstore.Config{}, zap.NewNop())
		agg, err := replayer.Replay(ctx, "Order", "42")

		require.NoError(t, err)
		assert.Equal(t, 3, agg.Version)
		assert.Equal(t, "shipped", agg.State["status"])
	})

	t.Run("saves snapshot past the threshold and resumes from it", func(t *testing.T) {
		store := memory.NewStore()
		appendOrderHistory(t, store)

		conf := eventstore.Config{StoreSnapshots: true, SnapshotThreshold: 2}
		replayer := eventstore.NewReplayer(store, conf, zap.NewNop())

		agg, err := replayer.Replay(ctx, "Order", "42")
		require.NoError(t, err)
		assert.Equal(t, 2, agg.Version)

		snap, err := store.Snapshot(ctx, "Order", "42")
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Version)

		// Later events fold on top of the snapshot.
		require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Updated{
			EntityID: "42",
			Changes: map[string]eventstore.Change{
				"status": {Old: "shipped", New: "delivered"},
			},
		}))

		agg, err = replayer.Replay(ctx, "Order", "42")
		require.NoError(t, err)
		assert.Equal(t, 3, agg.Version)
		assert.Equal(t, "delivered", agg.State["status"])
		assert.Equal(t, 99.5, agg.State["total"])
	})
}

func TestStateAt(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Created{
		EntityID: "42",
		State:    map[string]any{"status": "pending"},
	}))
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Updated{
		EntityID: "42",
		Changes: map[string]eventstore.Change{
			"status": {Old: "pending", New: "shipped"},
		},
	}))

	replayer := eventstore.NewReplayer(store, eventstore.Config{}, zap.NewNop())

	t.Run("cutoff before the update", func(t *testing.T) {
		agg, err := replayer.StateAt(ctx, "Order", "42", cutoff)

		require.NoError(t, err)
		assert.Equal(t, 1, agg.Version)
		assert.Equal(t, "pending", agg.State["status"])
	})

	t.Run("cutoff after everything", func(t *testing.T) {
		agg, err := replayer.StateAt(ctx, "Order", "42", time.Now())

		require.NoError(t, err)
		assert.Equal(t, 2, agg.Version)
		assert.Equal(t, "shipped", agg.State["status"])
	})

	t.Run("cutoff before creation yields empty state", func(t *testing.T) {
		agg, err := replayer.StateAt(ctx, "Order", "42", time.Now().Add(-time.Hour))

		require.NoError(t, err)
		assert.Equal(t, 0, agg.Version)
		assert.Empty(t, agg.State)
	})
}
