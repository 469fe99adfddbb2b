package sequence

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"todo-api/internal/config"
	"todo-api/pkg/logger"
)

// LogIDKey is the Redis counter backing client log ids.
const LogIDKey = "log:next_id"

var (
	client *redis.Client
	once   sync.Once
)

// Client returns the global Redis client (initialized on first use). It returns nil when
// REDIS_URL is unset or the server cannot be reached.
func Client(ctx context.Context) *redis.Client {
	once.Do(func() {
		cfg := config.Get()
		if cfg.RedisURL == "" {
			logger.Info(ctx, "Redis disabled (REDIS_URL not set)")
			return
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error(ctx, "Invalid REDIS_URL", "error", err)
			return
		}
		opts.PoolSize = cfg.RedisPoolSize
		c := redis.NewClient(opts)
		if err := c.Ping(ctx).Err(); err != nil {
			logger.Error(ctx, "Redis ping failed", "error", err)
			_ = c.Close()
			return
		}
		client = c
		logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	})
	return client
}

// Redis is a sequence kept in a Redis counter.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a sequence incrementing key on c.
func NewRedis(c *redis.Client, key string) *Redis {
	return &Redis{client: c, key: key}
}

func (s *Redis) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		logger.Error(ctx, "Redis INCR failed", "error", err, "key", s.key)
		return 0, err
	}
	return n, nil
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
