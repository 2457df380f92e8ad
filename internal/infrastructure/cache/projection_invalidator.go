package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fscredit/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	customerProjectionKeyPrefix = "projection:customer:"
	dashboardProjectionKey      = "projection:dashboard"
)

// ProjectionInvalidator drops cached read projections after a ledger write so
// the next read rebuilds from the source of truth. Invalidation is advisory:
// a failure leaves a stale cache, never a wrong ledger.
type ProjectionInvalidator interface {
	// InvalidateCustomerProjection drops the cached projection for one customer
	InvalidateCustomerProjection(ctx context.Context, customerID uuid.UUID) error

	// InvalidateDashboard drops the aggregate dashboard projection
	InvalidateDashboard(ctx context.Context) error

	// Close releases any resources held by the invalidator
	Close() error
}

// RedisProjectionInvalidator invalidates projections shared across instances
type RedisProjectionInvalidator struct {
	client     *redis.Client
	ownsClient bool
}

// NewRedisProjectionInvalidator creates a Redis-backed projection invalidator
func NewRedisProjectionInvalidator(cfg *config.RedisConfig) (*RedisProjectionInvalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProjectionInvalidator{client: client, ownsClient: true}, nil
}

// NewRedisProjectionInvalidatorWithClient wraps an existing Redis client.
// The caller retains ownership of the client.
func NewRedisProjectionInvalidatorWithClient(client *redis.Client) *RedisProjectionInvalidator {
	return &RedisProjectionInvalidator{client: client}
}

func (i *RedisProjectionInvalidator) InvalidateCustomerProjection(ctx context.Context, customerID uuid.UUID) error {
	if err := i.client.Del(ctx, customerProjectionKeyPrefix+customerID.String()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate customer projection: %w", err)
	}
	return nil
}

func (i *RedisProjectionInvalidator) InvalidateDashboard(ctx context.Context) error {
	if err := i.client.Del(ctx, dashboardProjectionKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dashboard projection: %w", err)
	}
	return nil
}

func (i *RedisProjectionInvalidator) Close() error {
	if i.ownsClient {
		return i.client.Close()
	}
	return nil
}

// InMemoryProjectionInvalidator tracks invalidations in-process. Suitable for
// single-instance deployments and tests.
type InMemoryProjectionInvalidator struct {
	mu        sync.Mutex
	customers map[uuid.UUID]int
	dashboard int
}

// NewInMemoryProjectionInvalidator creates an in-memory projection invalidator
func NewInMemoryProjectionInvalidator() *InMemoryProjectionInvalidator {
	return &InMemoryProjectionInvalidator{
		customers: make(map[uuid.UUID]int),
	}
}

func (i *InMemoryProjectionInvalidator) InvalidateCustomerProjection(_ context.Context, customerID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.customers[customerID]++
	return nil
}

func (i *InMemoryProjectionInvalidator) InvalidateDashboard(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.dashboard++
	return nil
}

func (i *InMemoryProjectionInvalidator) Close() error {
	return nil
}

// CustomerInvalidations returns how many times a customer projection was dropped
func (i *InMemoryProjectionInvalidator) CustomerInvalidations(customerID uuid.UUID) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.customers[customerID]
}

// DashboardInvalidations returns how many times the dashboard was dropped
func (i *InMemoryProjectionInvalidator) DashboardInvalidations() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.dashboard
}

var (
	_ ProjectionInvalidator = (*RedisProjectionInvalidator)(nil)
	_ ProjectionInvalidator = (*InMemoryProjectionInvalidator)(nil)
)
