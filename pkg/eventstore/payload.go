package eventstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the typed body of an event. The set of variants is closed:
// Created, Updated, Deleted and Generic.
type Payload interface {
	// EventType returns the stored event type name for a stream of the
	// given aggregate type, e.g. Created on an "Order" stream yields
	// "OrderCreatedEvent".
	EventType(aggregateType string) string
}

// Change is an old/new value pair for a single field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Created carries the full field snapshot of a newly created entity.
type Created struct {
	EntityID string         `json:"entity_id"`
	State    map[string]any `json:"state"`
}

func (Created) EventType(aggregateType string) string {
	return aggregateType + "CreatedEvent"
}

// Updated carries only the fields that actually changed.
type Updated struct {
	EntityID string            `json:"entity_id"`
	Changes  map[string]Change `json:"changes"`
}

func (Updated) EventType(aggregateType string) string {
	return aggregateType + "UpdatedEvent"
}

// Deleted carries the identity of a removed entity. The entity is gone, so
// there is nothing further to snapshot.
type Deleted struct {
	EntityID string `json:"entity_id"`
	Reason   string `json:"reason,omitempty"`
}

func (Deleted) EventType(aggregateType string) string {
	return aggregateType + "DeletedEvent"
}

// Generic is the fallback for event types outside the closed set, carrying
// an explicit type name and an arbitrary body.
type Generic struct {
	Name string
	Body any
}

func (g Generic) EventType(string) string {
	return g.Name
}

// EncodePayload serializes a payload to its stored JSON form.
func EncodePayload(p Payload) (json.RawMessage, error) {
	var v any = p
	if g, ok := p.(Generic); ok {
		v = g.Body
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}
	return data, nil
}

// DecodePayload reconstructs the typed payload of a stored event. Events
// whose type name does not match a known variant of their aggregate type
// decode as Generic with the raw body.
func DecodePayload(ev Event) (Payload, error) {
	switch ev.EventType {
	case ev.AggregateType + "CreatedEvent":
		var p Created
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", ev.EventType, err)
		}
		return p, nil

	case ev.AggregateType + "UpdatedEvent":
		var p Updated
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", ev.EventType, err)
		}
		return p, nil

	case ev.AggregateType + "DeletedEvent":
		var p Deleted
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", ev.EventType, err)
		}
		return p, nil
	}

	var body any
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &body); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", ev.EventType, err)
		}
	}
	return Generic{Name: ev.EventType, Body: body}, nil
}

// IsLifecycleEvent reports whether the event type belongs to the closed
// Created/Updated/Deleted set for its aggregate type.
func IsLifecycleEvent(ev Event) bool {
	if !strings.HasPrefix(ev.EventType, ev.AggregateType) {
		return false
	}
	suffix := strings.TrimPrefix(ev.EventType, ev.AggregateType)
	return suffix == "CreatedEvent" || suffix == "UpdatedEvent" || suffix == "DeletedEvent"
}
