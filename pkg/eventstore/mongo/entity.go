package mongo

import (
	"time"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// eventDocument is the stored form of an event. Payloads are kept as raw
// BSON so queries never depend on payload structure.
type eventDocument struct {
	EventID       string            `bson:"_id"`
	AggregateType string            `bson:"aggregate_type"`
	AggregateID   string            `bson:"aggregate_id"`
	EventType     string            `bson:"event_type"`
	Data          string            `bson:"data"`
	OccurredOn    time.Time         `bson:"occurred_on"`
	Version       int               `bson:"version"`
	UserID        string            `bson:"user_id"`
	Metadata      map[string]string `bson:"metadata,omitempty"`
}

func toDocument(ev eventstore.Event) eventDocument {
	return eventDocument{
		EventID:       ev.EventID,
		AggregateType: ev.AggregateType,
		AggregateID:   ev.AggregateID,
		EventType:     ev.EventType,
		Data:          string(ev.Data),
		OccurredOn:    ev.OccurredOn,
		Version:       ev.Version,
		UserID:        ev.UserID,
		Metadata:      ev.Metadata,
	}
}

func toEvent(doc eventDocument) eventstore.Event {
	return eventstore.Event{
		EventID:       doc.EventID,
		AggregateType: doc.AggregateType,
		AggregateID:   doc.AggregateID,
		EventType:     doc.EventType,
		Data:          []byte(doc.Data),
		OccurredOn:    doc.OccurredOn,
		Version:       doc.Version,
		UserID:        doc.UserID,
		Metadata:      doc.Metadata,
	}
}

// snapshotDocument keys on the stream so an upsert replaces the previous
// snapshot of the same aggregate.
type snapshotDocument struct {
	ID            string    `bson:"_id"`
	AggregateType string    `bson:"aggregate_type"`
	AggregateID   string    `bson:"aggregate_id"`
	State         string    `bson:"state"`
	Version       int       `bson:"version"`
	TakenAt       time.Time `bson:"taken_at"`
}

func snapshotID(aggregateType, aggregateID string) string {
	return aggregateType + "/" + aggregateID
}

// timeFilter translates a query range into an occurred_on filter.
func timeFilter(q eventstore.Query) bson.D {
	var bounds bson.D
	if !q.From.IsZero() {
		bounds = append(bounds, bson.E{Key: "$gte", Value: q.From})
	}
	if !q.To.IsZero() {
		bounds = append(bounds, bson.E{Key: "$lte", Value: q.To})
	}
	if len(bounds) == 0 {
		return nil
	}
	return bson.D{{Key: "occurred_on", Value: bounds}}
}
