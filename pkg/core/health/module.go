package health

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewReadinessModule provides the readiness manager for dependency injection.
// Both Readiness and ComponentManager resolve to the same instance.
func NewReadinessModule() fx.Option {
	return fx.Provide(
		func(log *zap.Logger) (Readiness, ComponentManager) {
			r := NewReadiness(log)
			return r, r
		},
	)
}
