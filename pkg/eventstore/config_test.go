package eventstore

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("missing section disables recording", func(t *testing.T) {
		cfg, err := NewConfig(viper.New())

		require.NoError(t, err)
		assert.False(t, cfg.Enabled)
		assert.Equal(t, ProviderMongo, cfg.Provider)
	})

	t.Run("applies defaults", func(t *testing.T) {
		v := viper.New()
		v.Set("event-sourcing.enabled", true)

		cfg, err := NewConfig(v)

		require.NoError(t, err)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "domain_events", cfg.EventsCollection)
		assert.Equal(t, "aggregate_snapshots", cfg.SnapshotsCollection)
		assert.Equal(t, 50, cfg.SnapshotThreshold)
		assert.Equal(t, 5, cfg.MaxAppendRetries)
		assert.Equal(t, 25*time.Millisecond, cfg.AppendRetryDelay)
	})

	t.Run("reads explicit values", func(t *testing.T) {
		v := viper.New()
		v.Set("event-sourcing.enabled", true)
		v.Set("event-sourcing.provider", "memory")
		v.Set("event-sourcing.audit-entities", []string{"Order", "Product"})
		v.Set("event-sourcing.store-metadata", true)
		v.Set("event-sourcing.snapshot-threshold", 10)
		v.Set("event-sourcing.events-collection", "audit_events")

		cfg, err := NewConfig(v)

		require.NoError(t, err)
		assert.Equal(t, ProviderMemory, cfg.Provider)
		assert.Equal(t, []string{"Order", "Product"}, cfg.AuditEntities)
		assert.True(t, cfg.StoreMetadata)
		assert.Equal(t, 10, cfg.SnapshotThreshold)
		assert.Equal(t, "audit_events", cfg.EventsCollection)
	})
}

func TestApplyAppendOptions(t *testing.T) {
	t.Run("defaults to system actor", func(t *testing.T) {
		userID, metadata := ApplyAppendOptions(nil)

		assert.Equal(t, SystemActor, userID)
		assert.Nil(t, metadata)
	})

	t.Run("keeps explicit actor and metadata", func(t *testing.T) {
		userID, metadata := ApplyAppendOptions([]AppendOption{
			WithActor("alice"),
			WithMetadata(map[string]string{"request_id": "r-1"}),
		})

		assert.Equal(t, "alice", userID)
		assert.Equal(t, map[string]string{"request_id": "r-1"}, metadata)
	})
}

func TestQueryMatches(t *testing.T) {
	now := time.Now()

	assert.True(t, Query{}.Matches(now))
	assert.True(t, Query{From: now.Add(-time.Hour), To: now.Add(time.Hour)}.Matches(now))
	assert.False(t, Query{From: now.Add(time.Minute)}.Matches(now))
	assert.False(t, Query{To: now.Add(-time.Minute)}.Matches(now))
}
