package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/room-director/pkg/world"
)

// RedisStore implements the Store interface using Redis for world snapshots.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store instance. redisURL accepts both
// "host:port" and "redis://" forms.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}

	return &RedisStore{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

// Client exposes the underlying redis client for pub/sub consumers.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// World snapshot operations

func (r *RedisStore) SaveWorld(ctx context.Context, name string, state *world.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		r.logger.Error("Failed to marshal world snapshot", "world", name, "error", err)
		return fmt.Errorf("failed to marshal world snapshot: %w", err)
	}

	// Use world: prefix for snapshot keys
	key := "world:" + name
	cmd := r.client.Set(ctx, key, string(data), 0)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save world snapshot", "world", name, "error", err)
		return fmt.Errorf("failed to save world snapshot: %w", err)
	}

	return nil
}

func (r *RedisStore) LoadWorld(ctx context.Context, name string) (*world.State, error) {
	key := "world:" + name
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("World snapshot not found", "world", name)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load world snapshot", "world", name, "error", err)
		return nil, fmt.Errorf("failed to load world snapshot: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		r.logger.Warn("World snapshot not found", "world", name)
		return nil, nil
	}

	var state world.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		r.logger.Error("Failed to unmarshal world snapshot", "world", name, "error", err)
		return nil, fmt.Errorf("failed to unmarshal world snapshot: %w", err)
	}

	return &state, nil
}

func (r *RedisStore) DeleteWorld(ctx context.Context, name string) error {
	key := "world:" + name
	cmd := r.client.Del(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete world snapshot", "world", name, "error", err)
		return fmt.Errorf("failed to delete world snapshot: %w", err)
	}
	return nil
}
