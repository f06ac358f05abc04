// Package mongo implements the durable MongoDB event store. Events are
// immutable documents in an append-only collection; a unique index on
// (aggregate_type, aggregate_id, version) enforces the gapless version
// sequence under concurrent appends.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	persistence "github.com/Sokol111/ecommerce-eventstore/pkg/persistence/mongo"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// Store is the MongoDB-backed event store.
type Store struct {
	events    persistence.Collection
	snapshots persistence.Collection
	bulkhead  *persistence.Bulkhead
	conf      eventstore.Config
	log       *zap.Logger
}

// NewStore builds a store over the configured events and snapshots
// collections. Call EnsureIndexes before the first append.
func NewStore(m persistence.Mongo, bulkhead *persistence.Bulkhead, conf eventstore.Config, log *zap.Logger) *Store {
	return &Store{
		events:    m.GetCollection(conf.EventsCollection),
		snapshots: m.GetCollection(conf.SnapshotsCollection),
		bulkhead:  bulkhead,
		conf:      conf,
		log:       log,
	}
}

// EnsureIndexes creates the indexes appends and queries rely on. The unique
// stream index is what turns a concurrent append race into a retryable
// duplicate key error.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.events.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{
			Keys: bson.D{
				{Key: "aggregate_type", Value: 1},
				{Key: "aggregate_id", Value: 1},
				{Key: "version", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "aggregate_type", Value: 1},
				{Key: "occurred_on", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "occurred_on", Value: -1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create event store indexes: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, aggregateType, aggregateID string, payload eventstore.Payload, opts ...eventstore.AppendOption) error {
	data, err := eventstore.EncodePayload(payload)
	if err != nil {
		return err
	}
	userID, metadata := eventstore.ApplyAppendOptions(opts)

	op := func() error {
		latest, err := s.LatestVersion(ctx, aggregateType, aggregateID)
		if err != nil {
			return backoff.Permanent(err)
		}

		doc := toDocument(eventstore.Event{
			EventID:       uuid.NewString(),
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			EventType:     payload.EventType(aggregateType),
			Data:          data,
			OccurredOn:    time.Now().UTC(),
			Version:       latest + 1,
			UserID:        userID,
			Metadata:      metadata,
		})

		err = s.bulkhead.Execute(ctx, func() error {
			_, err := s.events.InsertOne(ctx, doc)
			return err
		})
		if mongodriver.IsDuplicateKeyError(err) {
			s.log.Debug("append version conflict, retrying",
				zap.String("aggregateType", aggregateType),
				zap.String("aggregateId", aggregateID),
				zap.Int("version", doc.Version))
			return eventstore.ErrVersionConflict
		}
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to append event: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(s.conf.AppendRetryDelay),
			uint64(s.conf.MaxAppendRetries),
		), ctx)

	return backoff.Retry(op, policy)
}

func (s *Store) find(ctx context.Context, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]eventstore.Event, error) {
	var docs []eventDocument
	err := s.bulkhead.Execute(ctx, func() error {
		cursor, err := s.events.Find(ctx, filter, opts...)
		if err != nil {
			return err
		}
		return cursor.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return lo.Map(docs, func(doc eventDocument, _ int) eventstore.Event {
		return toEvent(doc)
	}), nil
}

func streamFilter(aggregateType, aggregateID string) bson.D {
	return bson.D{
		{Key: "aggregate_type", Value: aggregateType},
		{Key: "aggregate_id", Value: aggregateID},
	}
}

var byVersionAsc = options.Find().SetSort(bson.D{{Key: "version", Value: 1}})

func (s *Store) Events(ctx context.Context, aggregateType, aggregateID string) ([]eventstore.Event, error) {
	return s.find(ctx, streamFilter(aggregateType, aggregateID), byVersionAsc)
}

func (s *Store) EventsUntil(ctx context.Context, aggregateType, aggregateID string, until time.Time) ([]eventstore.Event, error) {
	filter := streamFilter(aggregateType, aggregateID)
	filter = append(filter, bson.E{Key: "occurred_on", Value: bson.D{{Key: "$lte", Value: until}}})
	return s.find(ctx, filter, byVersionAsc)
}

func (s *Store) EventsByVersion(ctx context.Context, aggregateType, aggregateID string, fromVersion, toVersion int) ([]eventstore.Event, error) {
	if fromVersion > toVersion {
		return nil, nil
	}
	filter := streamFilter(aggregateType, aggregateID)
	filter = append(filter, bson.E{Key: "version", Value: bson.D{
		{Key: "$gte", Value: fromVersion},
		{Key: "$lte", Value: toVersion},
	}})
	return s.find(ctx, filter, byVersionAsc)
}

func (s *Store) queryOptions(q eventstore.Query) options.Lister[options.FindOptions] {
	opts := options.Find().SetSort(bson.D{
		{Key: "occurred_on", Value: -1},
		{Key: "version", Value: -1},
	})
	if q.Limit > 0 {
		opts = opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func (s *Store) EventsByType(ctx context.Context, aggregateType string, q eventstore.Query) ([]eventstore.Event, error) {
	filter := bson.D{{Key: "aggregate_type", Value: aggregateType}}
	filter = append(filter, timeFilter(q)...)
	return s.find(ctx, filter, s.queryOptions(q))
}

func (s *Store) EventsByUser(ctx context.Context, userID string, q eventstore.Query) ([]eventstore.Event, error) {
	filter := bson.D{{Key: "user_id", Value: userID}}
	filter = append(filter, timeFilter(q)...)
	return s.find(ctx, filter, s.queryOptions(q))
}

func (s *Store) LatestVersion(ctx context.Context, aggregateType, aggregateID string) (int, error) {
	var doc struct {
		Version int `bson:"version"`
	}

	err := s.bulkhead.Execute(ctx, func() error {
		return s.events.FindOne(ctx, streamFilter(aggregateType, aggregateID),
			options.FindOne().
				SetSort(bson.D{{Key: "version", Value: -1}}).
				SetProjection(bson.D{{Key: "version", Value: 1}}),
		).Decode(&doc)
	})
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read latest version: %w", err)
	}
	return doc.Version, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, aggregateType, aggregateID string, state any, version int) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot state: %w", err)
	}

	doc := snapshotDocument{
		ID:            snapshotID(aggregateType, aggregateID),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		State:         string(data),
		Version:       version,
		TakenAt:       time.Now().UTC(),
	}

	err = s.bulkhead.Execute(ctx, func() error {
		_, err := s.snapshots.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: doc.ID}},
			doc,
			options.Replace().SetUpsert(true))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *Store) Snapshot(ctx context.Context, aggregateType, aggregateID string) (*eventstore.Snapshot, error) {
	var doc snapshotDocument

	err := s.bulkhead.Execute(ctx, func() error {
		return s.snapshots.FindOne(ctx,
			bson.D{{Key: "_id", Value: snapshotID(aggregateType, aggregateID)}},
		).Decode(&doc)
	})
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, eventstore.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return &eventstore.Snapshot{
		AggregateType: doc.AggregateType,
		AggregateID:   doc.AggregateID,
		State:         []byte(doc.State),
		Version:       doc.Version,
		TakenAt:       doc.TakenAt,
	}, nil
}

type statsBucket struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

type statsResult struct {
	Totals []struct {
		Count  int64     `bson:"count"`
		Oldest time.Time `bson:"oldest"`
		Latest time.Time `bson:"latest"`
	} `bson:"totals"`
	ByType      []statsBucket `bson:"by_type"`
	ByAggregate []statsBucket `bson:"by_aggregate"`
}

// Statistics computes all counters in a single $facet aggregation.
func (s *Store) Statistics(ctx context.Context, q eventstore.Query) (*eventstore.Statistics, error) {
	match := timeFilter(q)
	if match == nil {
		match = bson.D{}
	}

	pipeline := mongodriver.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: mongodriver.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "oldest", Value: bson.D{{Key: "$min", Value: "$occurred_on"}}},
					{Key: "latest", Value: bson.D{{Key: "$max", Value: "$occurred_on"}}},
				}}},
			}},
			{Key: "by_type", Value: mongodriver.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$event_type"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
			{Key: "by_aggregate", Value: mongodriver.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$aggregate_type"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
		}}},
	}

	var results []statsResult
	err := s.bulkhead.Execute(ctx, func() error {
		cursor, err := s.events.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		return cursor.All(ctx, &results)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	stats := eventstore.NewStatistics()
	if len(results) == 0 {
		return stats, nil
	}

	res := results[0]
	if len(res.Totals) > 0 {
		stats.TotalEvents = res.Totals[0].Count
		stats.OldestEvent = res.Totals[0].Oldest
		stats.LatestEvent = res.Totals[0].Latest
	}
	stats.EventsByType = lo.Associate(res.ByType, func(b statsBucket) (string, int64) {
		return b.ID, b.Count
	})
	stats.EventsByAggregateType = lo.Associate(res.ByAggregate, func(b statsBucket) (string, int64) {
		return b.ID, b.Count
	})
	return stats, nil
}
