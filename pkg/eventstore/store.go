package eventstore

import (
	"context"
	"time"
)

// Query bounds cross-aggregate queries. Zero times mean unbounded; a zero
// Limit means no limit.
type Query struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Matches reports whether a timestamp falls inside the query range.
func (q Query) Matches(ts time.Time) bool {
	if !q.From.IsZero() && ts.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && ts.After(q.To) {
		return false
	}
	return true
}

// appendOptions collects per-append metadata.
type appendOptions struct {
	userID   string
	metadata map[string]string
}

// AppendOption configures a single Append call.
type AppendOption func(*appendOptions)

// WithActor records the actor responsible for the event.
func WithActor(userID string) AppendOption {
	return func(o *appendOptions) {
		o.userID = userID
	}
}

// WithMetadata attaches contextual metadata to the event.
func WithMetadata(metadata map[string]string) AppendOption {
	return func(o *appendOptions) {
		o.metadata = metadata
	}
}

// ApplyAppendOptions resolves append options to the recorded actor and
// metadata. The actor falls back to SystemActor.
func ApplyAppendOptions(opts []AppendOption) (userID string, metadata map[string]string) {
	o := &appendOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.userID == "" {
		o.userID = SystemActor
	}
	return o.userID, o.metadata
}

// Store is the append-only persistence abstraction for domain events.
//
// Append assigns the next version of the target stream atomically with
// respect to concurrent appends to the same stream; appends to different
// streams proceed independently. All read methods are side-effect free and
// return empty results, not errors, when no events match.
type Store interface {
	// Append constructs and durably persists a new event at the next
	// version of the (aggregateType, aggregateID) stream.
	Append(ctx context.Context, aggregateType, aggregateID string, payload Payload, opts ...AppendOption) error

	// Events returns the full stream for one aggregate in ascending
	// version order.
	Events(ctx context.Context, aggregateType, aggregateID string) ([]Event, error)

	// EventsUntil returns the stream filtered to occurred_on <= until,
	// in ascending version order. Supports point-in-time reconstruction.
	EventsUntil(ctx context.Context, aggregateType, aggregateID string, until time.Time) ([]Event, error)

	// EventsByVersion returns events with fromVersion <= version <=
	// toVersion, ascending. An empty range yields an empty result.
	EventsByVersion(ctx context.Context, aggregateType, aggregateID string, fromVersion, toVersion int) ([]Event, error)

	// EventsByType returns events of one aggregate type across all
	// aggregates, most recent first.
	EventsByType(ctx context.Context, aggregateType string, q Query) ([]Event, error)

	// EventsByUser returns events recorded for one actor across all
	// aggregates and types, most recent first.
	EventsByUser(ctx context.Context, userID string, q Query) ([]Event, error)

	// LatestVersion returns the highest version of the stream, or 0 when
	// the aggregate has no events.
	LatestVersion(ctx context.Context, aggregateType, aggregateID string) (int, error)

	// SaveSnapshot stores the aggregate state at the given version,
	// superseding any prior snapshot of the same aggregate.
	SaveSnapshot(ctx context.Context, aggregateType, aggregateID string, state any, version int) error

	// Snapshot returns the current snapshot of the aggregate, or
	// ErrSnapshotNotFound when none exists.
	Snapshot(ctx context.Context, aggregateType, aggregateID string) (*Snapshot, error)

	// Statistics returns aggregate counters over events in the query
	// range. An empty store yields zero counts.
	Statistics(ctx context.Context, q Query) (*Statistics, error)
}
