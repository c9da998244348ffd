package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"signal-engine/config"
	"signal-engine/internal/logging"
)

// RedisStore is a Redis-backed Store. Connection problems degrade to
// errors the caller handles by treating the key as unset; the engine never
// aborts a cycle over state-store availability.
type RedisStore struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisStore creates a RedisStore and verifies connectivity. A failed
// ping is reported but the store is still returned; operations will surface
// errors until Redis recovers.
func NewRedisStore(cfg config.RedisConfig, logger *logging.Logger) (*RedisStore, error) {
	if !cfg.Enabled {
		return nil, errors.New("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rs := &RedisStore{
		client: client,
		logger: logger.WithComponent("statestore"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		rs.logger.Warn("initial redis connection failed, continuing degraded", "error", err)
		return rs, nil
	}

	rs.logger.Info("redis connected", "address", cfg.Address)
	return rs, nil
}

func (r *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value interface{}) error {
	return r.SetWithTTL(ctx, key, value, 0)
}

func (r *RedisStore) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool
func (r *RedisStore) Close() error {
	return r.client.Close()
}
