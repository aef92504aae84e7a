package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reel-quizzer/internal/config"
)

// NewRedisClient creates a client and pings the server to ensure connectivity.
// Address may be host:port or a redis:// URL.
func NewRedisClient(ctx context.Context, redisCfg config.RedisConfig) (*redis.Client, error) {
	if redisCfg.Address == "" {
		return nil, fmt.Errorf("redis configuration is missing or address is empty")
	}

	opt := &redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}
	if parsed, err := redis.ParseURL(redisCfg.Address); err == nil {
		opt = parsed
		if redisCfg.Password != "" {
			opt.Password = redisCfg.Password
		}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opt.Addr, err)
	}

	return client, nil
}
