package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend implements session.Backend using Redis. An optional namespace is
// prepended to every key so several devices can share one server.
type Backend struct {
	client    *redis.Client
	namespace string
}

// New creates a Redis-backed session backend. The backend owns client and
// closes it on Close.
func New(client *redis.Client, namespace string) *Backend {
	return &Backend{client: client, namespace: namespace}
}

func (b *Backend) key(k string) string {
	if b.namespace == "" {
		return k
	}
	return b.namespace + ":" + k
}

// Get retrieves a value from Redis.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, b.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

// Set stores a value without expiry.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := b.client.Set(ctx, b.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// SetMany stores all entries with a single MSET, which Redis applies
// atomically.
func (b *Backend) SetMany(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	pairs := make([]any, 0, 2*len(kv))
	for k, v := range kv {
		pairs = append(pairs, b.key(k), v)
	}
	if err := b.client.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("redis mset: %w", err)
	}
	return nil
}

// Remove deletes keys with a single DEL.
func (b *Backend) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (b *Backend) Close() error {
	return b.client.Close()
}
