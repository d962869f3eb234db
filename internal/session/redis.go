package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the session pair in Redis so several front-desk
// terminals share one logged-in session. Tokens live under the fixed
// "access" / "refresh" keys, optionally namespaced per clinic.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// NewRedisStore wraps an existing client. prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

func (s *RedisStore) get(name string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	v, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *RedisStore) Access() string {
	return s.get(KeyAccess)
}

func (s *RedisStore) Refresh() string {
	return s.get(KeyRefresh)
}

func (s *RedisStore) SetPair(access, refresh string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyAccess), access, 0)
		pipe.Set(ctx, s.key(KeyRefresh), refresh, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session pair: %w", err)
	}
	return nil
}

func (s *RedisStore) SetAccess(access string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.client.Set(ctx, s.key(KeyAccess), access, 0).Err(); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.client.Del(ctx, s.key(KeyAccess), s.key(KeyRefresh)).Err(); err != nil {
		return fmt.Errorf("clear session pair: %w", err)
	}
	return nil
}
