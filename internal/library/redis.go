package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares solved tables across processes through Redis.
// Values are whole JSON documents written with a single SET, so reads
// are atomic per key.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// TTL of 0 keeps entries until explicit invalidation.
	TTL time.Duration
}

// NewRedisStore builds a RedisStore over a fresh client.
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewRedisStoreFromClient(client, opts.TTL)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, keyPrefix: "powerrank:ratings:", ttl: ttl}
}

func (s *RedisStore) redisKey(key Key) string {
	return fmt.Sprintf("%s%d:%d:%s", s.keyPrefix, key.Season, key.Week, key.ConfigHash)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rating set from redis: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode rating set: %w", err)
	}
	return &entry, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode rating set: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(entry.Key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rating set to redis: %w", err)
	}
	return nil
}

// Invalidate implements Store. Keys are discovered with SCAN so large
// libraries do not block the server the way KEYS would.
func (s *RedisStore) Invalidate(ctx context.Context, season, week int) error {
	pattern := fmt.Sprintf("%s%d:%d:*", s.keyPrefix, season, week)
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete rating set %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan rating sets: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error { return s.client.Close() }
