package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
)

// Connect opens a Redis client and pings it, retrying with exponential
// backoff up to cfg.MaxRetries attempts.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetAddr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		})

		if lastErr = Ping(ctx, client); lastErr == nil {
			log.Infow("Redis connected", "addr", cfg.GetAddr(), "attempt", attempt)
			return client, nil
		}
		_ = client.Close()

		log.Warnw("Redis connection failed", "addr", cfg.GetAddr(), "attempt", attempt, "error", lastErr)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", attempts, lastErr)
}

// Ping checks the connection with a short timeout.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
