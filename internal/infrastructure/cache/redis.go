package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// NewRedisClient connects to Redis, retrying the initial ping with
// exponential backoff.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second
	ping := func() error {
		return client.Ping(ctx).Err()
	}
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.GetRedisAddr(), err)
	}
	return client, nil
}

// RedisStore keeps vectors in Redis as packed float32 strings
type RedisStore struct {
	client *redis.Client
}

var _ VectorCache = (*RedisStore)(nil)

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetMany implements VectorCache
func (rs *RedisStore) GetMany(ctx context.Context, keys []string) ([][]float32, error) {
	out := make([][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	values, err := rs.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		vec, err := decodeVector([]byte(s))
		if err != nil {
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// SetMany implements VectorCache
func (rs *RedisStore) SetMany(ctx context.Context, entries map[string][]float32, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}
	if ttl < 0 {
		ttl = 0
	}
	pipe := rs.client.Pipeline()
	for key, vec := range entries {
		pipe.Set(ctx, key, encodeVector(vec), ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the underlying client
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
