package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis instance, for deployments where
// session continuity must survive process restarts.
type Redis struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
	cfg    *Config
}

// NewRedis creates a Redis-backed session store from the given config.
// The connection is not validated until first use.
func NewRedis(cfg *Config, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Redis{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: logger.With("system", "sessions"),
		cfg:    cfg,
	}, nil
}

func (r *Redis) key(id string) string {
	return r.prefix + id
}

func (r *Redis) Get(ctx context.Context, id string) (string, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session get %s: %w", id, err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, id, text string) error {
	if err := r.client.Set(ctx, r.key(id), text, r.cfg.TTLDuration()).Err(); err != nil {
		return fmt.Errorf("session set %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("session clear %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
