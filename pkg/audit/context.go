package audit

import "context"

type contextKey int

const (
	actorKey contextKey = iota
	metadataKey
)

// WithActor stores the acting user on the context so recorded events carry
// the right user_id.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey, userID)
}

// ActorFromContext returns the acting user set by WithActor.
func ActorFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(actorKey).(string)
	return userID, ok && userID != ""
}

// WithMetadata stores request-scoped metadata to be attached to recorded
// events, e.g. a request id or client address.
func WithMetadata(ctx context.Context, metadata map[string]string) context.Context {
	return context.WithValue(ctx, metadataKey, metadata)
}

// MetadataFromContext returns the metadata set by WithMetadata, nil if none.
func MetadataFromContext(ctx context.Context) map[string]string {
	metadata, _ := ctx.Value(metadataKey).(map[string]string)
	return metadata
}
