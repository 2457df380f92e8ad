package cache

import (
	"fmt"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/fscredit/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory creates cache-backed components, preferring Redis when it is
// reachable and falling back to in-memory stores for single-instance runs.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when
// Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new cache component factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateIdempotencyStore creates an idempotency store, trying Redis first.
// In-memory stores do not share state across instances, so a fallback in a
// multi-instance deployment can reprocess events.
func (f *Factory) CreateIdempotencyStore() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(&f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

// CreateProjectionInvalidator creates a projection invalidator, trying Redis first
func (f *Factory) CreateProjectionInvalidator() (ProjectionInvalidator, error) {
	invalidator, err := NewRedisProjectionInvalidator(&f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis projection invalidator")
		return invalidator, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for projection invalidation but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory projection invalidator",
		zap.Error(err),
	)
	return NewInMemoryProjectionInvalidator(), nil
}
