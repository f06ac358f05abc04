package eventstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadEventType(t *testing.T) {
	assert.Equal(t, "OrderCreatedEvent", Created{}.EventType("Order"))
	assert.Equal(t, "OrderUpdatedEvent", Updated{}.EventType("Order"))
	assert.Equal(t, "OrderDeletedEvent", Deleted{}.EventType("Order"))
	assert.Equal(t, "OrderShippedEvent", Generic{Name: "OrderShippedEvent"}.EventType("Order"))
}

func TestDecodePayload(t *testing.T) {
	t.Run("created round trip", func(t *testing.T) {
		data, err := EncodePayload(Created{
			EntityID: "42",
			State:    map[string]any{"status": "pending", "total": 99.5},
		})
		require.NoError(t, err)

		payload, err := DecodePayload(Event{
			AggregateType: "Order",
			EventType:     "OrderCreatedEvent",
			Data:          data,
		})
		require.NoError(t, err)

		created, ok := payload.(Created)
		require.True(t, ok)
		assert.Equal(t, "42", created.EntityID)
		assert.Equal(t, "pending", created.State["status"])
	})

	t.Run("updated round trip", func(t *testing.T) {
		data, err := EncodePayload(Updated{
			EntityID: "42",
			Changes:  map[string]Change{"status": {Old: "pending", New: "shipped"}},
		})
		require.NoError(t, err)

		payload, err := DecodePayload(Event{
			AggregateType: "Order",
			EventType:     "OrderUpdatedEvent",
			Data:          data,
		})
		require.NoError(t, err)

		updated, ok := payload.(Updated)
		require.True(t, ok)
		assert.Equal(t, "pending", updated.Changes["status"].Old)
		assert.Equal(t, "shipped", updated.Changes["status"].New)
	})

	t.Run("unknown event type decodes as generic", func(t *testing.T) {
		payload, err := DecodePayload(Event{
			AggregateType: "Order",
			EventType:     "OrderShippedEvent",
			Data:          json.RawMessage(`{"carrier":"dhl"}`),
		})
		require.NoError(t, err)

		generic, ok := payload.(Generic)
		require.True(t, ok)
		assert.Equal(t, "OrderShippedEvent", generic.Name)
	})

	t.Run("lifecycle type of another aggregate decodes as generic", func(t *testing.T) {
		payload, err := DecodePayload(Event{
			AggregateType: "Order",
			EventType:     "ProductCreatedEvent",
			Data:          json.RawMessage(`{}`),
		})
		require.NoError(t, err)

		_, ok := payload.(Generic)
		assert.True(t, ok)
	})

	t.Run("malformed payload fails", func(t *testing.T) {
		_, err := DecodePayload(Event{
			AggregateType: "Order",
			EventType:     "OrderCreatedEvent",
			Data:          json.RawMessage(`{broken`),
		})
		assert.Error(t, err)
	})
}

func TestIsLifecycleEvent(t *testing.T) {
	assert.True(t, IsLifecycleEvent(Event{AggregateType: "Order", EventType: "OrderCreatedEvent"}))
	assert.True(t, IsLifecycleEvent(Event{AggregateType: "Order", EventType: "OrderDeletedEvent"}))
	assert.False(t, IsLifecycleEvent(Event{AggregateType: "Order", EventType: "OrderShippedEvent"}))
	assert.False(t, IsLifecycleEvent(Event{AggregateType: "Order", EventType: "ProductCreatedEvent"}))
}
