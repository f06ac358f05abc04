// Package audit records entity lifecycle changes as domain events. The
// Recorder sits between repositories and the event store: writes go to the
// primary store first and the matching event is appended alongside, for the
// aggregate types enrolled in auditing.
package audit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Recorder translates entity mutations into stored events.
type Recorder struct {
	store eventstore.Store
	conf  eventstore.Config
	log   *zap.Logger
}

func NewRecorder(store eventstore.Store, conf eventstore.Config, log *zap.Logger) *Recorder {
	return &Recorder{store: store, conf: conf, log: log}
}

// Enrolled reports whether mutations of the aggregate type are recorded.
// An empty allow-list enrolls every type. Non-enrolled types short-circuit
// before any serialization work.
func (r *Recorder) Enrolled(aggregateType string) bool {
	if !r.conf.Enabled {
		return false
	}
	return len(r.conf.AuditEntities) == 0 || lo.Contains(r.conf.AuditEntities, aggregateType)
}

// EntityCreated records the full state of a newly created entity.
func (r *Recorder) EntityCreated(ctx context.Context, aggregateType, entityID string, entity any) error {
	if !r.Enrolled(aggregateType) {
		return nil
	}

	state, err := toStateMap(entity)
	if err != nil {
		return err
	}
	return r.append(ctx, aggregateType, entityID, eventstore.Created{
		EntityID: entityID,
		State:    state,
	})
}

// EntityUpdated diffs the before and after states and records only the
// changed fields. An update with no effective changes records nothing.
func (r *Recorder) EntityUpdated(ctx context.Context, aggregateType, entityID string, before, after any) error {
	if !r.Enrolled(aggregateType) {
		return nil
	}

	changes, err := Diff(before, after)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		r.log.Debug("update produced no field changes, skipping event",
			zap.String("aggregateType", aggregateType),
			zap.String("entityId", entityID))
		return nil
	}

	return r.append(ctx, aggregateType, entityID, eventstore.Updated{
		EntityID: entityID,
		Changes:  changes,
	})
}

// EntityDeleted records the removal of an entity.
func (r *Recorder) EntityDeleted(ctx context.Context, aggregateType, entityID, reason string) error {
	if !r.Enrolled(aggregateType) {
		return nil
	}
	return r.append(ctx, aggregateType, entityID, eventstore.Deleted{
		EntityID: entityID,
		Reason:   reason,
	})
}

func (r *Recorder) append(ctx context.Context, aggregateType, entityID string, payload eventstore.Payload) error {
	var opts []eventstore.AppendOption
	if actor, ok := ActorFromContext(ctx); ok {
		opts = append(opts, eventstore.WithActor(actor))
	}
	if r.conf.StoreMetadata {
		opts = append(opts, eventstore.WithMetadata(r.metadata(ctx)))
	}

	if err := r.store.Append(ctx, aggregateType, entityID, payload, opts...); err != nil {
		return fmt.Errorf("failed to record %s for %s/%s: %w",
			payload.EventType(aggregateType), aggregateType, entityID, err)
	}
	return nil
}

func (r *Recorder) metadata(ctx context.Context) map[string]string {
	metadata := map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if host, err := os.Hostname(); err == nil {
		metadata["host"] = host
	}
	for k, v := range MetadataFromContext(ctx) {
		metadata[k] = v
	}
	return metadata
}
