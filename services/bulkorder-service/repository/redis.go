package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient parses redisURL and pings the server with retries.
func NewRedisClient(ctx context.Context, redisURL string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	var pingErr error
	for attempt := 1; attempt <= 5; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		pingErr = client.Ping(pingCtx).Err()
		cancel()
		if pingErr == nil {
			logger.Info("connected to redis", zap.String("addr", opts.Addr))
			return client, nil
		}
		logger.Warn("redis not ready, retrying", zap.Int("attempt", attempt), zap.Error(pingErr))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	_ = client.Close()
	return nil, fmt.Errorf("redis ping failed: %w", pingErr)
}
