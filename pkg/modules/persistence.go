// Package modules composes the library's fx modules for host applications.
package modules

import (
	"github.com/Sokol111/ecommerce-eventstore/pkg/persistence/mongo"
	"go.uber.org/fx"
)

// persistenceOptions holds internal configuration for the persistence module.
type persistenceOptions struct {
	mongoConfig *mongo.Config
}

// PersistenceOption is a functional option for configuring the persistence module.
type PersistenceOption func(*persistenceOptions)

// WithMongoConfig provides a static Mongo Config (useful for tests).
// When set, the Mongo configuration will not be loaded from viper.
func WithMongoConfig(cfg mongo.Config) PersistenceOption {
	return func(opts *persistenceOptions) {
		opts.mongoConfig = &cfg
	}
}

// NewPersistenceModule provides persistence layer components for dependency injection.
func NewPersistenceModule(opts ...PersistenceOption) fx.Option {
	cfg := &persistenceOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.mongoConfig != nil {
		return mongo.NewMongoModule(mongo.WithMongoConfig(*cfg.mongoConfig))
	}
	return mongo.NewMongoModule()
}
