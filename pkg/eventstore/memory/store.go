// Package memory provides an in-memory event store for tests and local
// development. It honors the same ordering and versioning guarantees as the
// durable backends.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	"github.com/google/uuid"
)

type store struct {
	mu        sync.Mutex
	events    []eventstore.Event
	snapshots map[string]eventstore.Snapshot
}

// NewStore returns an empty in-memory event store safe for concurrent use.
func NewStore() eventstore.Store {
	return &store{
		snapshots: make(map[string]eventstore.Snapshot),
	}
}

func streamKey(aggregateType, aggregateID string) string {
	return aggregateType + "/" + aggregateID
}

func (s *store) Append(ctx context.Context, aggregateType, aggregateID string, payload eventstore.Payload, opts ...eventstore.AppendOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := eventstore.EncodePayload(payload)
	if err != nil {
		return err
	}
	userID, metadata := eventstore.ApplyAppendOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.latestVersionLocked(aggregateType, aggregateID) + 1
	s.events = append(s.events, eventstore.Event{
		EventID:       uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     payload.EventType(aggregateType),
		Data:          data,
		OccurredOn:    time.Now().UTC(),
		Version:       version,
		UserID:        userID,
		Metadata:      metadata,
	})
	return nil
}

func (s *store) latestVersionLocked(aggregateType, aggregateID string) int {
	latest := 0
	for _, ev := range s.events {
		if ev.AggregateType == aggregateType && ev.AggregateID == aggregateID && ev.Version > latest {
			latest = ev.Version
		}
	}
	return latest
}

func (s *store) stream(aggregateType, aggregateID string, keep func(eventstore.Event) bool) []eventstore.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []eventstore.Event
	for _, ev := range s.events {
		if ev.AggregateType != aggregateType || ev.AggregateID != aggregateID {
			continue
		}
		if keep != nil && !keep(ev) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

func (s *store) Events(ctx context.Context, aggregateType, aggregateID string) ([]eventstore.Event, error) {
	return s.stream(aggregateType, aggregateID, nil), nil
}

func (s *store) EventsUntil(ctx context.Context, aggregateType, aggregateID string, until time.Time) ([]eventstore.Event, error) {
	return s.stream(aggregateType, aggregateID, func(ev eventstore.Event) bool {
		return !ev.OccurredOn.After(until)
	}), nil
}

func (s *store) EventsByVersion(ctx context.Context, aggregateType, aggregateID string, fromVersion, toVersion int) ([]eventstore.Event, error) {
	return s.stream(aggregateType, aggregateID, func(ev eventstore.Event) bool {
		return ev.Version >= fromVersion && ev.Version <= toVersion
	}), nil
}

func (s *store) query(keep func(eventstore.Event) bool, q eventstore.Query) []eventstore.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []eventstore.Event
	for _, ev := range s.events {
		if !keep(ev) || !q.Matches(ev.OccurredOn) {
			continue
		}
		out = append(out, ev)
	}
	// Most recent first; occurred_on can collide, version breaks ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].OccurredOn.After(out[j].OccurredOn)
		}
		return out[i].Version > out[j].Version
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (s *store) EventsByType(ctx context.Context, aggregateType string, q eventstore.Query) ([]eventstore.Event, error) {
	return s.query(func(ev eventstore.Event) bool {
		return ev.AggregateType == aggregateType
	}, q), nil
}

func (s *store) EventsByUser(ctx context.Context, userID string, q eventstore.Query) ([]eventstore.Event, error) {
	return s.query(func(ev eventstore.Event) bool {
		return ev.UserID == userID
	}, q), nil
}

func (s *store) LatestVersion(ctx context.Context, aggregateType, aggregateID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestVersionLocked(aggregateType, aggregateID), nil
}

func (s *store) SaveSnapshot(ctx context.Context, aggregateType, aggregateID string, state any, version int) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[streamKey(aggregateType, aggregateID)] = eventstore.Snapshot{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		State:         data,
		Version:       version,
		TakenAt:       time.Now().UTC(),
	}
	return nil
}

func (s *store) Snapshot(ctx context.Context, aggregateType, aggregateID string) (*eventstore.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[streamKey(aggregateType, aggregateID)]
	if !ok {
		return nil, eventstore.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (s *store) Statistics(ctx context.Context, q eventstore.Query) (*eventstore.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := eventstore.NewStatistics()
	for _, ev := range s.events {
		if !q.Matches(ev.OccurredOn) {
			continue
		}
		stats.TotalEvents++
		stats.EventsByType[ev.EventType]++
		stats.EventsByAggregateType[ev.AggregateType]++
		if stats.OldestEvent.IsZero() || ev.OccurredOn.Before(stats.OldestEvent) {
			stats.OldestEvent = ev.OccurredOn
		}
		if ev.OccurredOn.After(stats.LatestEvent) {
			stats.LatestEvent = ev.OccurredOn
		}
	}
	return stats, nil
}
