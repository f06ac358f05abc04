package mongo

import (
	"context"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection is the subset of the driver collection API used by repositories.
// Implementations apply the configured query timeout to every call.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOneOptions]) *mongodriver.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOptions]) (*mongodriver.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...options.Lister[options.ReplaceOptions]) (*mongodriver.UpdateResult, error)
	FindOneAndReplace(ctx context.Context, filter interface{}, replacement interface{}, opts ...options.Lister[options.FindOneAndReplaceOptions]) *mongodriver.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.DeleteOneOptions]) (*mongodriver.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...options.Lister[options.CountOptions]) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...options.Lister[options.AggregateOptions]) (*mongodriver.Cursor, error)
	Indexes() mongodriver.IndexView
	Drop(ctx context.Context) error
	Name() string
}

// timeoutCollection wraps a driver collection and bounds every operation
// with the configured query timeout.
type timeoutCollection struct {
	coll    *mongodriver.Collection
	timeout time.Duration
}

func newTimeoutCollection(coll *mongodriver.Collection, timeout time.Duration) *timeoutCollection {
	return &timeoutCollection{coll: coll, timeout: timeout}
}

func (c *timeoutCollection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *timeoutCollection) FindOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOneOptions]) *mongodriver.SingleResult {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.FindOne(ctx, filter, opts...)
}

func (c *timeoutCollection) Find(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOptions]) (*mongodriver.Cursor, error) {
	// The returned cursor outlives this call, so the caller's context applies as-is
	return c.coll.Find(ctx, filter, opts...)
}

func (c *timeoutCollection) InsertOne(ctx context.Context, document interface{}, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.InsertOne(ctx, document, opts...)
}

func (c *timeoutCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...options.Lister[options.ReplaceOptions]) (*mongodriver.UpdateResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.ReplaceOne(ctx, filter, replacement, opts...)
}

func (c *timeoutCollection) FindOneAndReplace(ctx context.Context, filter interface{}, replacement interface{}, opts ...options.Lister[options.FindOneAndReplaceOptions]) *mongodriver.SingleResult {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.FindOneAndReplace(ctx, filter, replacement, opts...)
}

func (c *timeoutCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.DeleteOneOptions]) (*mongodriver.DeleteResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.DeleteOne(ctx, filter, opts...)
}

func (c *timeoutCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...options.Lister[options.CountOptions]) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.CountDocuments(ctx, filter, opts...)
}

func (c *timeoutCollection) Aggregate(ctx context.Context, pipeline interface{}, opts ...options.Lister[options.AggregateOptions]) (*mongodriver.Cursor, error) {
	// The returned cursor outlives this call, so the caller's context applies as-is
	return c.coll.Aggregate(ctx, pipeline, opts...)
}

func (c *timeoutCollection) Indexes() mongodriver.IndexView {
	return c.coll.Indexes()
}

func (c *timeoutCollection) Drop(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.Drop(ctx)
}

func (c *timeoutCollection) Name() string {
	return c.coll.Name()
}
