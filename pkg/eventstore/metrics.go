package eventstore

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"

// instrumentedStore decorates a Store with OpenTelemetry metrics.
type instrumentedStore struct {
	next Store

	appends        metric.Int64Counter
	appendDuration metric.Float64Histogram
	queries        metric.Int64Counter
}

// NewInstrumentedStore wraps a store with append and query metrics.
func NewInstrumentedStore(next Store) (Store, error) {
	meter := otel.Meter(meterName)

	appends, err := meter.Int64Counter("eventstore.appends",
		metric.WithDescription("Number of append operations"))
	if err != nil {
		return nil, fmt.Errorf("failed to create append counter: %w", err)
	}

	appendDuration, err := meter.Float64Histogram("eventstore.append.duration",
		metric.WithDescription("Append latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create append duration histogram: %w", err)
	}

	queries, err := meter.Int64Counter("eventstore.operations",
		metric.WithDescription("Number of store operations other than appends"))
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	return &instrumentedStore{
		next:           next,
		appends:        appends,
		appendDuration: appendDuration,
		queries:        queries,
	}, nil
}

func (s *instrumentedStore) Append(ctx context.Context, aggregateType, aggregateID string, payload Payload, opts ...AppendOption) error {
	start := time.Now()
	err := s.next.Append(ctx, aggregateType, aggregateID, payload, opts...)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("aggregate_type", aggregateType),
		attribute.String("outcome", outcome),
	)
	s.appends.Add(ctx, 1, attrs)
	s.appendDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	return err
}

func (s *instrumentedStore) countQuery(ctx context.Context, op string) {
	s.queries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func (s *instrumentedStore) Events(ctx context.Context, aggregateType, aggregateID string) ([]Event, error) {
	s.countQuery(ctx, "events")
	return s.next.Events(ctx, aggregateType, aggregateID)
}

func (s *instrumentedStore) EventsUntil(ctx context.Context, aggregateType, aggregateID string, until time.Time) ([]Event, error) {
	s.countQuery(ctx, "events_until")
	return s.next.EventsUntil(ctx, aggregateType, aggregateID, until)
}

func (s *instrumentedStore) EventsByVersion(ctx context.Context, aggregateType, aggregateID string, fromVersion, toVersion int) ([]Event, error) {
	s.countQuery(ctx, "events_by_version")
	return s.next.EventsByVersion(ctx, aggregateType, aggregateID, fromVersion, toVersion)
}

func (s *instrumentedStore) EventsByType(ctx context.Context, aggregateType string, q Query) ([]Event, error) {
	s.countQuery(ctx, "events_by_type")
	return s.next.EventsByType(ctx, aggregateType, q)
}

func (s *instrumentedStore) EventsByUser(ctx context.Context, userID string, q Query) ([]Event, error) {
	s.countQuery(ctx, "events_by_user")
	return s.next.EventsByUser(ctx, userID, q)
}

func (s *instrumentedStore) LatestVersion(ctx context.Context, aggregateType, aggregateID string) (int, error) {
	s.countQuery(ctx, "latest_version")
	return s.next.LatestVersion(ctx, aggregateType, aggregateID)
}

func (s *instrumentedStore) SaveSnapshot(ctx context.Context, aggregateType, aggregateID string, state any, version int) error {
	s.countQuery(ctx, "save_snapshot")
	return s.next.SaveSnapshot(ctx, aggregateType, aggregateID, state, version)
}

func (s *instrumentedStore) Snapshot(ctx context.Context, aggregateType, aggregateID string) (*Snapshot, error) {
	s.countQuery(ctx, "snapshot")
	return s.next.Snapshot(ctx, aggregateType, aggregateID)
}

func (s *instrumentedStore) Statistics(ctx context.Context, q Query) (*Statistics, error) {
	s.countQuery(ctx, "statistics")
	return s.next.Statistics(ctx, q)
}
