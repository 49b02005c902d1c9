package cache

import (
	"context"

	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is the redis client used by the edge
type Redis interface {
	redis.Cmdable

	// Unwrap returns the underlying client for pipelines and pub/sub
	Unwrap() *redis.Client
	// PoolStats reports connection pool statistics
	PoolStats() *redis.PoolStats
	Close() error
}

type defaultRedis struct {
	*redis.Client
}

// NewRedis connects to redis and verifies the connection with a PING
func NewRedis(log logger.Logger, cfg *RedisConfig) (Redis, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := cfg.Options()
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrRedisConnection(err)
	}

	log.Info("redis connection established",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize),
	)
	return &defaultRedis{Client: client}, nil
}

func (r *defaultRedis) Unwrap() *redis.Client {
	return r.Client
}
