package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/tripsync/portal/internal/domain/providers"
	redisclient "github.com/tripsync/portal/internal/infrastructure/clients/redis"
)

// RedisStore implements the StorageProvider interface using Redis
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore creates a new Redis-backed client store
func NewRedisStore(client *redisclient.Client) providers.StorageProvider {
	return &RedisStore{
		client: client,
	}
}

// Get retrieves a value from Redis
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	result, err := s.client.Client().Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", providers.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return result, nil
}

// Set stores a value without expiry, like browser local storage
func (s *RedisStore) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Client().Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

// Delete removes a value from Redis
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

// Exists checks if a key exists in Redis
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	result, err := s.client.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence in redis: %w", err)
	}
	return result > 0, nil
}

// Keys walks the keyspace with SCAN so large stores are not blocked by KEYS
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	match := escapeGlob(prefix) + "*"
	for {
		batch, next, err := s.client.Client().Scan(ctx, cursor, match, 200).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan redis keys with prefix %s: %w", prefix, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	return keys, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
