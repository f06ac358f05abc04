package audit

import (
	"context"
	"testing"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRecorder(conf eventstore.Config) (*Recorder, eventstore.Store) {
	store := memory.NewStore()
	return NewRecorder(store, conf, zap.NewNop()), store
}

func enabledConfig(entities ...string) eventstore.Config {
	return eventstore.Config{
		Enabled:       true,
		Provider:      eventstore.ProviderMemory,
		AuditEntities: entities,
	}
}

func TestRecorderEnrolled(t *testing.T) {
	t.Run("enrolled aggregate type", func(t *testing.T) {
		recorder, _ := newTestRecorder(enabledConfig("Order", "Product"))
		assert.True(t, recorder.Enrolled("Order"))
		assert.False(t, recorder.Enrolled("Customer"))
	})

	t.Run("empty allow-list enrolls every type", func(t *testing.T) {
		recorder, _ := newTestRecorder(enabledConfig())
		assert.True(t, recorder.Enrolled("Order"))
		assert.True(t, recorder.Enrolled("Customer"))
	})

	t.Run("disabled recording enrolls nothing", func(t *testing.T) {
		recorder, _ := newTestRecorder(eventstore.Config{AuditEntities: []string{"Order"}})
		assert.False(t, recorder.Enrolled("Order"))
	})
}

func TestRecorderLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("records the full entity lifecycle", func(t *testing.T) {
		recorder, store := newTestRecorder(enabledConfig("Order"))
		ctx := WithActor(ctx, "alice")

		require.NoError(t, recorder.EntityCreated(ctx, "Order", "42",
			order{ID: "42", Status: "pending", Total: 99.5}))
		require.NoError(t, recorder.EntityUpdated(ctx, "Order", "42",
			order{ID: "42", Status: "pending", Total: 99.5},
			order{ID: "42", Status: "shipped", Total: 99.5}))
		require.NoError(t, recorder.EntityDeleted(ctx, "Order", "42", "cancelled"))

		events, err := store.Events(ctx, "Order", "42")
		require.NoError(t, err)
		require.Len(t, events, 3)

		assert.Equal(t, "OrderCreatedEvent", events[0].EventType)
		assert.Equal(t, "OrderUpdatedEvent", events[1].EventType)
		assert.Equal(t, "OrderDeletedEvent", events[2].EventType)
		for i, ev := range events {
			assert.Equal(t, i+1, ev.Version)
			assert.Equal(t, "alice", ev.UserID)
		}

		payload, err := eventstore.DecodePayload(events[1])
		require.NoError(t, err)
		updated := payload.(eventstore.Updated)
		require.Len(t, updated.Changes, 1)
		assert.Equal(t, "shipped", updated.Changes["status"].New)
	})

	t.Run("no-op update records nothing", func(t *testing.T) {
		recorder, store := newTestRecorder(enabledConfig("Order"))

		before := order{ID: "42", Status: "pending"}
		require.NoError(t, recorder.EntityUpdated(ctx, "Order", "42", before, before))

		events, err := store.Events(ctx, "Order", "42")
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("non-enrolled type records nothing", func(t *testing.T) {
		recorder, store := newTestRecorder(enabledConfig("Product"))

		require.NoError(t, recorder.EntityCreated(ctx, "Order", "42", order{ID: "42"}))

		events, err := store.Events(ctx, "Order", "42")
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("missing actor falls back to system", func(t *testing.T) {
		recorder, store := newTestRecorder(enabledConfig("Order"))

		require.NoError(t, recorder.EntityCreated(ctx, "Order", "42", order{ID: "42"}))

		events, err := store.Events(ctx, "Order", "42")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, eventstore.SystemActor, events[0].UserID)
	})

	t.Run("metadata captures defaults and context values", func(t *testing.T) {
		conf := enabledConfig("Order")
		conf.StoreMetadata = true
		recorder, store := newTestRecorder(conf)
		ctx := WithMetadata(ctx, map[string]string{"request_id": "r-1"})

		require.NoError(t, recorder.EntityCreated(ctx, "Order", "42", order{ID: "42"}))

		events, err := store.Events(ctx, "Order", "42")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.NotEmpty(t, events[0].Metadata["timestamp"])
		assert.Equal(t, "r-1", events[0].Metadata["request_id"])
	})

	t.Run("metadata disabled by default", func(t *testing.T) {
		recorder, store := newTestRecorder(enabledConfig("Order"))

		require.NoError(t, recorder.EntityCreated(ctx, "Order", "42", order{ID: "42"}))

		events, err := store.Events(ctx, "Order", "42")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Empty(t, events[0].Metadata)
	})
}
