package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gipoly/gipoly-engine/pkg/config"
	"github.com/gipoly/gipoly-engine/pkg/retry"
)

// NewRedisClient creates a Redis client for the rate limiter.
// Returns nil if Redis is not configured (host is empty).
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr() == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
