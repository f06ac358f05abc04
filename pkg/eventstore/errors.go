package eventstore

import "errors"

var (
	// ErrVersionConflict is returned when a concurrent append claimed the
	// target version first. Appends retry on it internally.
	ErrVersionConflict = errors.New("event version conflict")

	// ErrSnapshotNotFound is returned when an aggregate has no snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrUnknownProvider is returned when the configured provider is not
	// one of mongo, memory or noop.
	ErrUnknownProvider = errors.New("unknown event store provider")
)
