package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/devndesk/DevReady/internal/config"
)

// WeeklyCache mirrors per-group weekly scores into Redis sorted sets so
// leaderboard reads don't have to sort in the application. The store
// remains the source of truth; every caller treats the cache as
// best-effort.
type WeeklyCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewWeeklyCache creates a new weekly score cache
func NewWeeklyCache(cfg *config.RedisConfig, logger *slog.Logger) (*WeeklyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &WeeklyCache{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *WeeklyCache) Close() error {
	return c.client.Close()
}

// groupKey returns the Redis key for a group's weekly ranking
func (c *WeeklyCache) groupKey(groupID string) string {
	return fmt.Sprintf("league:group:%s:weekly", groupID)
}

// SetScore records a user's current weekly score in their group ranking
func (c *WeeklyCache) SetScore(ctx context.Context, groupID, userID string, score int) error {
	key := c.groupKey(groupID)
	err := c.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(score),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("setting weekly score: %w", err)
	}
	return nil
}

// TopMembers returns the group's user ids ordered by weekly score
// descending
func (c *WeeklyCache) TopMembers(ctx context.Context, groupID string) ([]string, error) {
	key := c.groupKey(groupID)
	members, err := c.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading weekly ranking: %w", err)
	}
	return members, nil
}

// RemoveGroup drops a group's ranking, typically after a season rotation
func (c *WeeklyCache) RemoveGroup(ctx context.Context, groupID string) error {
	if err := c.client.Del(ctx, c.groupKey(groupID)).Err(); err != nil {
		return fmt.Errorf("removing weekly ranking: %w", err)
	}
	return nil
}
