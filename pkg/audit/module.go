package audit

import (
	"context"
	"fmt"

	"github.com/Sokol111/ecommerce-eventstore/pkg/core/health"
	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore/memory"
	esmongo "github.com/Sokol111/ecommerce-eventstore/pkg/eventstore/mongo"
	persistencemongo "github.com/Sokol111/ecommerce-eventstore/pkg/persistence/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// auditOptions holds internal configuration for the audit module.
type auditOptions struct {
	config *eventstore.Config
}

// Option is a functional option for configuring the audit module.
type Option func(*auditOptions)

// WithConfig provides a static event-sourcing Config (useful for tests).
// When set, the configuration will not be loaded from viper.
func WithConfig(cfg eventstore.Config) Option {
	return func(opts *auditOptions) {
		opts.config = &cfg
	}
}

// NewAuditModule provides the event store, recorder and replayer for
// dependency injection. The store backend follows the configured provider;
// when auditing is disabled the noop store is wired.
func NewAuditModule(opts ...Option) fx.Option {
	cfg := &auditOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	configProvider := fx.Provide(eventstore.NewConfig)
	if cfg.config != nil {
		static := *cfg.config
		configProvider = fx.Provide(func() (eventstore.Config, error) { return static, nil })
	}

	return fx.Options(
		configProvider,
		fx.Provide(
			provideStore,
			eventstore.NewReplayer,
			NewRecorder,
		),
	)
}

type storeParams struct {
	fx.In

	Conf eventstore.Config
	Log  *zap.Logger
	Lc   fx.Lifecycle

	// Only required by the mongo provider.
	Readiness health.ComponentManager    `optional:"true"`
	Mongo     persistencemongo.Mongo     `optional:"true"`
	Bulkhead  *persistencemongo.Bulkhead `optional:"true"`
}

func provideStore(p storeParams) (eventstore.Store, error) {
	if !p.Conf.Enabled {
		p.Log.Info("event recording disabled, using noop store")
		return eventstore.NewNoopStore(), nil
	}

	var store eventstore.Store
	switch p.Conf.Provider {
	case eventstore.ProviderNoop:
		store = eventstore.NewNoopStore()

	case eventstore.ProviderMemory:
		store = memory.NewStore()

	case eventstore.ProviderMongo:
		if p.Mongo == nil || p.Bulkhead == nil {
			return nil, fmt.Errorf("mongo event store provider requires the mongo module")
		}
		s := esmongo.NewStore(p.Mongo, p.Bulkhead, p.Conf, p.Log)

		markReady := func() {}
		if p.Readiness != nil {
			markReady = p.Readiness.AddComponent("event-store")
		}
		p.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				defer markReady()
				return s.EnsureIndexes(ctx)
			},
		})
		store = s

	default:
		return nil, fmt.Errorf("%w: %q", eventstore.ErrUnknownProvider, p.Conf.Provider)
	}

	p.Log.Info("event store initialized",
		zap.String("provider", p.Conf.Provider),
		zap.Strings("auditEntities", p.Conf.AuditEntities))

	return eventstore.NewInstrumentedStore(store)
}
