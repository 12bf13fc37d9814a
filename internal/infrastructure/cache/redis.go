// Package cache implements the feed seen-set on Redis. Membership is
// advisory: losing the set only causes re-publishes, which the store's
// identifier dedup absorbs.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// SeenSet implements outbound.SeenSet on a Redis set.
type SeenSet struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewSeenSet creates the seen-set adapter.
func NewSeenSet(cfg *config.Config, logger *zap.Logger) *SeenSet {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	return &SeenSet{
		client: client,
		key:    cfg.Feed.SeenSetPrefix,
		logger: logger.Named("seen-set"),
	}
}

// Add records a member. Returns true when the member was not seen before.
func (s *SeenSet) Add(ctx context.Context, member string) (bool, error) {
	added, err := s.client.SAdd(ctx, s.key, member).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add seen member: %w", err)
	}
	return added == 1, nil
}

// Contains reports whether a member was already recorded.
func (s *SeenSet) Contains(ctx context.Context, member string) (bool, error) {
	seen, err := s.client.SIsMember(ctx, s.key, member).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check seen member: %w", err)
	}
	return seen, nil
}

// HealthCheck pings the cache.
func (s *SeenSet) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SeenSet) Close() error {
	return s.client.Close()
}

var _ outbound.SeenSet = (*SeenSet)(nil)
