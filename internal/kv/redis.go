package kv

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for preference values.
const redisKeyPrefix = "dashstate:pref:"

// RedisStore implements Store using Redis. TTLs map to native key expiry,
// so no lazy sweeping is needed for this driver.
type RedisStore struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(owner, key string) string {
	return redisKeyPrefix + owner + ":" + key
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, owner, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(owner, key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Save implements Store. A ttl of 0 stores the key without expiry.
func (s *RedisStore) Save(ctx context.Context, owner, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(owner, key), value, ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, owner, key string) error {
	return s.client.Del(ctx, s.key(owner, key)).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
