package audit

import (
	"context"
	"errors"

	"github.com/Sokol111/ecommerce-eventstore/pkg/persistence"
	"github.com/Sokol111/ecommerce-eventstore/pkg/persistence/mongo"
)

// Repository wraps a generic repository and records every successful
// mutation through the Recorder. Reads pass through untouched.
type Repository[Domain any, Entity any] struct {
	repo          *mongo.GenericRepository[Domain, Entity]
	recorder      *Recorder
	aggregateType string
	id            func(*Domain) string
}

// NewRepository builds an audited repository for one aggregate type. The id
// function extracts the entity identifier from the domain model.
func NewRepository[Domain any, Entity any](
	repo *mongo.GenericRepository[Domain, Entity],
	recorder *Recorder,
	aggregateType string,
	id func(*Domain) string,
) *Repository[Domain, Entity] {
	return &Repository[Domain, Entity]{
		repo:          repo,
		recorder:      recorder,
		aggregateType: aggregateType,
		id:            id,
	}
}

func (r *Repository[Domain, Entity]) Insert(ctx context.Context, domain *Domain) error {
	if err := r.repo.Insert(ctx, domain); err != nil {
		return err
	}
	return r.recorder.EntityCreated(ctx, r.aggregateType, r.id(domain), domain)
}

// Update captures the previous state before writing, so the recorded event
// carries a field-level diff. The diff compares that state with the
// caller-supplied domain, not with the written result: the underlying write
// bumps the optimistic-locking version on every update, which is persistence
// bookkeeping rather than a domain change, and must not turn an otherwise
// unchanged entity into an UpdatedEvent. The read is skipped entirely for
// types not enrolled in auditing.
func (r *Repository[Domain, Entity]) Update(ctx context.Context, domain *Domain) (*Domain, error) {
	var before *Domain
	if r.recorder.Enrolled(r.aggregateType) {
		found, err := r.repo.FindByID(ctx, r.id(domain))
		if err != nil && !errors.Is(err, persistence.ErrEntityNotFound) {
			return nil, err
		}
		before = found
	}

	updated, err := r.repo.Update(ctx, domain)
	if err != nil {
		return nil, err
	}

	if before != nil {
		if err := r.recorder.EntityUpdated(ctx, r.aggregateType, r.id(updated), before, domain); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (r *Repository[Domain, Entity]) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	return r.recorder.EntityDeleted(ctx, r.aggregateType, id, "")
}

func (r *Repository[Domain, Entity]) FindByID(ctx context.Context, id string) (*Domain, error) {
	return r.repo.FindByID(ctx, id)
}

func (r *Repository[Domain, Entity]) FindAll(ctx context.Context) ([]*Domain, error) {
	return r.repo.FindAll(ctx)
}

func (r *Repository[Domain, Entity]) Exists(ctx context.Context, id string) (bool, error) {
	return r.repo.Exists(ctx, id)
}
