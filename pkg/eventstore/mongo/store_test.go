package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	persistence "github.com/Sokol111/ecommerce-eventstore/pkg/persistence/mongo"
	"github.com/Sokol111/ecommerce-eventstore/pkg/testutil/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}

	ctx := context.Background()
	c, err := container.StartMongoDBContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Terminate(context.Background())
	})

	log := zap.NewNop()
	conf := persistence.Config{
		ConnectionString:    c.ConnectionString,
		Database:            "audit_test",
		MaxPoolSize:         10,
		MinPoolSize:         1,
		MaxConnIdleTime:     time.Minute,
		ConnectTimeout:      10 * time.Second,
		ServerSelectTimeout: 10 * time.Second,
		QueryTimeout:        10 * time.Second,
	}

	m, err := persistence.NewMongo(log, conf)
	require.NoError(t, err)
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() {
		_ = m.Disconnect(context.Background())
	})

	store := NewStore(m, persistence.NewBulkhead(16, 5*time.Second, log), eventstore.Config{
		EventsCollection:    "domain_events",
		SnapshotsCollection: "aggregate_snapshots",
		MaxAppendRetries:    50,
		AppendRetryDelay:    5 * time.Millisecond,
	}, log)
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestStoreAppendAndRead(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Created{
		EntityID: "42",
		State:    map[string]any{"status": "pending"},
	}, eventstore.WithActor("alice")))
	require.NoError(t, store.Append(ctx, "Order", "42", eventstore.Updated{
		EntityID: "42",
		Changes:  map[string]eventstore.Change{"status": {Old: "pending", New: "shipped"}},
	}, eventstore.WithActor("bob")))
	require.NoError(t, store.Append(ctx, "Product", "7", eventstore.Created{EntityID: "7"}))

	t.Run("stream in version order", func(t *testing.T) {
		events, err := store.Events(ctx, "Order", "42")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, 1, events[0].Version)
		assert.Equal(t, "OrderCreatedEvent", events[0].EventType)
		assert.Equal(t, "alice", events[0].UserID)
		assert.Equal(t, 2, events[1].Version)

		payload, err := eventstore.DecodePayload(events[1])
		require.NoError(t, err)
		updated := payload.(eventstore.Updated)
		assert.Equal(t, "shipped", updated.Changes["status"].New)
	})

	t.Run("latest version", func(t *testing.T) {
		version, err := store.LatestVersion(ctx, "Order", "42")
		require.NoError(t, err)
		assert.Equal(t, 2, version)

		version, err = store.LatestVersion(ctx, "Order", "missing")
		require.NoError(t, err)
		assert.Equal(t, 0, version)
	})

	t.Run("events by version range", func(t *testing.T) {
		events, err := store.EventsByVersion(ctx, "Order", "42", 2, 5)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, 2, events[0].Version)

		events, err = store.EventsByVersion(ctx, "Order", "42", 5, 2)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("events by type most recent first", func(t *testing.T) {
		events, err := store.EventsByType(ctx, "Order", eventstore.Query{})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, 2, events[0].Version)
	})

	t.Run("events by user", func(t *testing.T) {
		events, err := store.EventsByUser(ctx, "alice", eventstore.Query{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "OrderCreatedEvent", events[0].EventType)
	})

	t.Run("time travel cutoff", func(t *testing.T) {
		events, err := store.EventsUntil(ctx, "Order", "42", time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Empty(t, events)

		events, err = store.EventsUntil(ctx, "Order", "42", time.Now())
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := store.Statistics(ctx, eventstore.Query{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalEvents)
		assert.Equal(t, int64(2), stats.EventsByAggregateType["Order"])
		assert.Equal(t, int64(1), stats.EventsByType["ProductCreatedEvent"])
		assert.False(t, stats.OldestEvent.After(stats.LatestEvent))
	})
}

func TestStoreConcurrentAppends(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	var g errgroup.Group
	for range 10 {
		g.Go(func() error {
			return store.Append(ctx, "Order", "42", eventstore.Generic{Name: "OrderTouchedEvent"})
		})
	}
	require.NoError(t, g.Wait())

	events, err := store.Events(ctx, "Order", "42")
	require.NoError(t, err)
	require.Len(t, events, 10)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Version)
	}
}

func TestStoreSnapshots(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.Snapshot(ctx, "Order", "42")
	assert.ErrorIs(t, err, eventstore.ErrSnapshotNotFound)

	require.NoError(t, store.SaveSnapshot(ctx, "Order", "42", map[string]any{"status": "pending"}, 3))
	require.NoError(t, store.SaveSnapshot(ctx, "Order", "42", map[string]any{"status": "shipped"}, 5))

	snap, err := store.Snapshot(ctx, "Order", "42")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Version)
	assert.JSONEq(t, `{"status":"shipped"}`, string(snap.State))
}
