package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/okian/sportplanner/internal/domain/types"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// RedisConfig addresses the Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache is a ProposalCache shared between instances through Redis.
// Proposals are stored as JSON under keyPrefix+teamID with the TTL applied
// by Redis itself.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, rc RedisConfig, opts ...Option) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisCacheWithClient(client, opts...), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, opts ...Option) *RedisCache {
	cfg := newConfig(opts)
	return &RedisCache{client: client, prefix: cfg.keyPrefix, ttl: max(cfg.ttl, 0), log: cfg.log}
}

func (c *RedisCache) key(teamID int64) string {
	return c.prefix + strconv.FormatInt(teamID, 10)
}

// Get returns the proposal for teamID.
func (c *RedisCache) Get(ctx context.Context, teamID int64) (*types.ProposalResponse, bool, error) {
	data, err := c.client.Get(ctx, c.key(teamID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss(BackendRedis)
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordErrorByComponent("cache", "redis_get")
		return nil, false, fmt.Errorf("get proposal for team %d: %w", teamID, err)
	}
	var resp types.ProposalResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// A payload from an incompatible version is treated as a miss.
		c.log.Warn(ctx, "dropping undecodable proposal", logger.Int64("team_id", teamID), logger.Error(err))
		_ = c.client.Del(ctx, c.key(teamID)).Err()
		metrics.RecordCacheMiss(BackendRedis)
		return nil, false, nil
	}
	metrics.RecordCacheHit(BackendRedis)
	return &resp, true, nil
}

// Set stores resp for teamID.
func (c *RedisCache) Set(ctx context.Context, teamID int64, resp *types.ProposalResponse) error {
	if resp == nil {
		return ErrNilProposal
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode proposal for team %d: %w", teamID, err)
	}
	if err := c.client.Set(ctx, c.key(teamID), data, c.ttl).Err(); err != nil {
		metrics.RecordErrorByComponent("cache", "redis_set")
		return fmt.Errorf("set proposal for team %d: %w", teamID, err)
	}
	return nil
}

// Invalidate deletes the entry for teamID.
func (c *RedisCache) Invalidate(ctx context.Context, teamID int64) error {
	if err := c.client.Del(ctx, c.key(teamID)).Err(); err != nil {
		return fmt.Errorf("invalidate proposal for team %d: %w", teamID, err)
	}
	return nil
}

// Len counts keys under the cache prefix.
func (c *RedisCache) Len(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		n      int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan keys: %w", err)
		}
		n += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return n, nil
		}
	}
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
