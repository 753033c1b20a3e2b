package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisStore keeps pairs in Redis under a key namespace.
type RedisStore struct {
	pool      *redis.Pool
	namespace string
}

// NewRedisStore creates a pooled store for addr. Keys are stored as
// namespace + key.
func NewRedisStore(addr, namespace string) *RedisStore {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(5*time.Second),
				redis.DialWriteTimeout(5*time.Second))
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
	return &RedisStore{pool: pool, namespace: namespace}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("PING")
	return err
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	defer conn.Close()

	v, err := redis.String(conn.Do("GET", s.namespace+key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	defer conn.Close()

	if _, err := conn.Do("SET", s.namespace+key, value); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis remove: %w", err)
	}
	defer conn.Close()

	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = s.namespace + k
	}
	if _, err := conn.Do("DEL", args...); err != nil {
		return fmt.Errorf("redis remove %d keys: %w", len(keys), err)
	}
	return nil
}

// GetAllKeys scans the namespace.
func (s *RedisStore) GetAllKeys(ctx context.Context) ([]string, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	defer conn.Close()

	var keys []string
	cursor := "0"
	for {
		parts, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", s.namespace+"*", "COUNT", 100))
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		var batch []string
		if _, err := redis.Scan(parts, &cursor, &batch); err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.namespace))
		}
		if cursor == "0" {
			return keys, nil
		}
	}
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}
