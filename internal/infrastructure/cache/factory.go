package cache

import (
	"fmt"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// storeOptions collects the optional knobs for NewStore
type storeOptions struct {
	logger           *zap.Logger
	inMemoryFallback bool
}

// StoreOption is a functional option for NewStore
type StoreOption func(*storeOptions)

// WithLogger sets the logger used for backend selection messages
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store instead of failing startup. Default is true: a cold cache
// only costs retries the fast path, the ledger constraint still holds.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(o *storeOptions) {
		o.inMemoryFallback = allow
	}
}

// NewStore builds the retry store for the named backend. "redis" connects to
// the configured Redis; anything else yields the in-memory store.
func NewStore(backend string, cfg config.RedisConfig, opts ...StoreOption) (shared.IdempotencyStore, error) {
	o := storeOptions{
		logger:           zap.NewNop(),
		inMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if backend != "redis" {
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		if !o.inMemoryFallback {
			return nil, fmt.Errorf("failed to create Redis idempotency store: %w", err)
		}
		o.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
			zap.Error(err))
		return NewInMemoryIdempotencyStore(), nil
	}

	o.logger.Info("Using Redis idempotency store",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port))
	return store, nil
}
