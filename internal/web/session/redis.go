package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisPrefix = "session:"

// RedisStorage keeps sessions in redis under the "session:" prefix. Expiry is left to redis.
type RedisStorage struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisStorage creates a redis backed storage.
func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client, timeout: 3 * time.Second} //nolint:mnd
}

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get implements Storage.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	return val, err
}

// Set implements Storage.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	ctx, cancel := s.ctx()
	defer cancel()

	return s.client.Set(ctx, redisPrefix+key, val, exp).Err()
}

// Delete implements Storage.
func (s *RedisStorage) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	return s.client.Del(ctx, redisPrefix+key).Err()
}

// Reset removes every session key, other keys in the database are kept.
func (s *RedisStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator() //nolint:mnd
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}

// Close implements Storage.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
