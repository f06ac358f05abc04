package mongo

import (
	"context"

	"github.com/Sokol111/ecommerce-eventstore/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// mongoOptions holds internal configuration for the mongo module.
type mongoOptions struct {
	config *Config
}

// ModuleOption is a functional option for configuring the mongo module.
type ModuleOption func(*mongoOptions)

// WithMongoConfig provides a static Config (useful for tests).
// When set, the mongo configuration will not be loaded from viper.
func WithMongoConfig(cfg Config) ModuleOption {
	return func(opts *mongoOptions) {
		opts.config = &cfg
	}
}

// NewMongoModule provides MongoDB components for dependency injection.
func NewMongoModule(opts ...ModuleOption) fx.Option {
	cfg := &mongoOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	configProvider := fx.Provide(NewConfig)
	if cfg.config != nil {
		static := *cfg.config
		configProvider = fx.Provide(func() (Config, error) { return static, nil })
	}

	return fx.Options(
		configProvider,
		fx.Provide(
			provideMongo,
			provideBulkhead,
		),
	)
}

func provideMongo(lc fx.Lifecycle, log *zap.Logger, conf Config, readiness health.ComponentManager) (Mongo, Admin, error) {
	m, err := NewMongo(log, conf)
	if err != nil {
		return nil, nil, err
	}

	markReady := readiness.AddComponent("mongo-module")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			defer markReady()
			return m.Connect(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return m.Disconnect(ctx)
		},
	})

	return m, m, nil
}

func provideBulkhead(log *zap.Logger, conf Config) *Bulkhead {
	return NewBulkhead(conf.MaxConcurrentOps, conf.AcquireTimeout, log)
}
