package eventstore

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted by the "provider" setting.
const (
	ProviderMongo  = "mongo"
	ProviderMemory = "memory"
	ProviderNoop   = "noop"
)

type Config struct {
	// Enabled turns event recording on. When false the noop store is
	// wired regardless of the provider.
	Enabled bool `mapstructure:"enabled"`

	// Provider selects the store backend: mongo, memory or noop.
	Provider string `mapstructure:"provider"`

	// AuditEntities is the allow-list of aggregate types to record. An
	// empty list enrolls every type.
	AuditEntities []string `mapstructure:"audit-entities"`

	// StoreMetadata controls whether contextual metadata is captured on
	// each event.
	StoreMetadata bool `mapstructure:"store-metadata"`

	// StoreSnapshots enables snapshot writes during replay.
	StoreSnapshots bool `mapstructure:"store-snapshots"`

	// SnapshotThreshold is the number of events folded during a replay
	// after which a fresh snapshot is persisted.
	SnapshotThreshold int `mapstructure:"snapshot-threshold"`

	EventsCollection    string `mapstructure:"events-collection"`
	SnapshotsCollection string `mapstructure:"snapshots-collection"`

	// MaxAppendRetries bounds retries on version conflicts between
	// concurrent appends to the same stream.
	MaxAppendRetries int           `mapstructure:"max-append-retries"`
	AppendRetryDelay time.Duration `mapstructure:"append-retry-delay"`
}

// NewConfig loads the event-sourcing configuration from the "event-sourcing"
// viper subtree. A missing subtree yields a disabled configuration.
func NewConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if !v.IsSet("event-sourcing") {
		return applyDefaults(cfg), nil
	}

	sub := v.Sub("event-sourcing")
	if sub == nil {
		return applyDefaults(cfg), nil
	}
	if err := sub.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load event-sourcing config: %w", err)
	}

	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	if cfg.Provider == "" {
		cfg.Provider = ProviderMongo
	}
	if cfg.EventsCollection == "" {
		cfg.EventsCollection = "domain_events"
	}
	if cfg.SnapshotsCollection == "" {
		cfg.SnapshotsCollection = "aggregate_snapshots"
	}
	if cfg.SnapshotThreshold == 0 {
		cfg.SnapshotThreshold = 50
	}
	if cfg.MaxAppendRetries == 0 {
		cfg.MaxAppendRetries = 5
	}
	if cfg.AppendRetryDelay == 0 {
		cfg.AppendRetryDelay = 25 * time.Millisecond
	}
	return cfg
}
