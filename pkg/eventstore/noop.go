package eventstore

import (
	"context"
	"time"
)

// noopStore discards appends and answers every query with empty results.
// It keeps callers working when event recording is disabled.
type noopStore struct{}

// NewNoopStore returns a store that records nothing.
func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Append(context.Context, string, string, Payload, ...AppendOption) error {
	return nil
}

func (noopStore) Events(context.Context, string, string) ([]Event, error) {
	return nil, nil
}

func (noopStore) EventsUntil(context.Context, string, string, time.Time) ([]Event, error) {
	return nil, nil
}

func (noopStore) EventsByVersion(context.Context, string, string, int, int) ([]Event, error) {
	return nil, nil
}

func (noopStore) EventsByType(context.Context, string, Query) ([]Event, error) {
	return nil, nil
}

func (noopStore) EventsByUser(context.Context, string, Query) ([]Event, error) {
	return nil, nil
}

func (noopStore) LatestVersion(context.Context, string, string) (int, error) {
	return 0, nil
}

func (noopStore) SaveSnapshot(context.Context, string, string, any, int) error {
	return nil
}

func (noopStore) Snapshot(context.Context, string, string) (*Snapshot, error) {
	return nil, ErrSnapshotNotFound
}

func (noopStore) Statistics(context.Context, Query) (*Statistics, error) {
	return NewStatistics(), nil
}
