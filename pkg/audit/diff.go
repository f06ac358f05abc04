package audit

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
)

// toStateMap flattens an entity to a field map through its JSON form, so
// diffing follows the same field names and shapes the payloads store.
func toStateMap(entity any) (map[string]any, error) {
	if m, ok := entity.(map[string]any); ok {
		return m, nil
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize entity state: %w", err)
	}

	var state map[string]any
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to flatten entity state: %w", err)
	}
	return state, nil
}

// Diff computes the field-level changes between two entity states. Fields
// present in only one side diff against nil. An empty result means the
// update was a no-op.
func Diff(before, after any) (map[string]eventstore.Change, error) {
	oldState, err := toStateMap(before)
	if err != nil {
		return nil, err
	}
	newState, err := toStateMap(after)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]eventstore.Change)
	for field, newValue := range newState {
		oldValue, existed := oldState[field]
		if existed && reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes[field] = eventstore.Change{Old: oldValue, New: newValue}
	}
	for field, oldValue := range oldState {
		if _, still := newState[field]; !still {
			changes[field] = eventstore.Change{Old: oldValue, New: nil}
		}
	}
	return changes, nil
}
