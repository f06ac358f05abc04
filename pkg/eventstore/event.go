// Package eventstore provides an append-only, versioned audit log of domain
// events. Every tracked entity mutation is recorded as an immutable Event in
// a per-aggregate stream; streams are ordered by a gapless version sequence
// assigned by the store.
package eventstore

import (
	"encoding/json"
	"time"
)

// SystemActor is recorded when no authenticated actor is present.
const SystemActor = "system"

// Event is the immutable unit of storage. Once appended it is never updated
// or deleted.
type Event struct {
	// EventID is globally unique across the store, assigned at append time.
	EventID string `json:"event_id" bson:"event_id"`

	// AggregateType is the logical entity category, e.g. "Order".
	AggregateType string `json:"aggregate_type" bson:"aggregate_type"`

	// AggregateID identifies the entity instance within its type.
	AggregateID string `json:"aggregate_id" bson:"aggregate_id"`

	// EventType names the event variant, e.g. "OrderCreatedEvent".
	EventType string `json:"event_type" bson:"event_type"`

	// Data is the JSON-serialized payload.
	Data json.RawMessage `json:"data" bson:"data"`

	// OccurredOn is the UTC append timestamp. It is informational; Version
	// defines the true order within a stream.
	OccurredOn time.Time `json:"occurred_on" bson:"occurred_on"`

	// Version is a positive integer, strictly increasing within a stream
	// starting at 1, with no gaps or duplicates.
	Version int `json:"version" bson:"version"`

	// UserID is the actor who triggered the event, SystemActor if unknown.
	UserID string `json:"user_id" bson:"user_id"`

	// Metadata is an optional key-value bag captured at append time.
	Metadata map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Snapshot is a materialized aggregate state at a known version. At most one
// snapshot is retained per aggregate; it is a read optimization only and the
// event stream remains authoritative.
type Snapshot struct {
	AggregateType string          `json:"aggregate_type" bson:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id" bson:"aggregate_id"`
	State         json.RawMessage `json:"state" bson:"state"`
	Version       int             `json:"version" bson:"version"`
	TakenAt       time.Time       `json:"taken_at" bson:"taken_at"`
}

// Statistics holds aggregate counters over the stored events, used by audit
// dashboards. An empty store yields zero counts.
type Statistics struct {
	TotalEvents           int64            `json:"total_events"`
	EventsByType          map[string]int64 `json:"events_by_type"`
	EventsByAggregateType map[string]int64 `json:"events_by_aggregate_type"`
	OldestEvent           time.Time        `json:"oldest_event"`
	LatestEvent           time.Time        `json:"latest_event"`
}

// NewStatistics returns empty statistics with initialized maps.
func NewStatistics() *Statistics {
	return &Statistics{
		EventsByType:          make(map[string]int64),
		EventsByAggregateType: make(map[string]int64),
	}
}
