package paramsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces parameter keys in a shared Redis.
const DefaultRedisPrefix = "msgf:param:"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisSource reads parameter files stored as Redis string values under
// <prefix><file>.
type RedisSource struct {
	client redisClient
	closer func() error
	prefix string
}

// NewRedisSource creates a source backed by the Redis server at addr.
func NewRedisSource(addr, password string, db int, prefix string) *RedisSource {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newRedisSource(rdb, rdb.Close, prefix)
}

func newRedisSource(c redisClient, closer func() error, prefix string) *RedisSource {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisSource{client: c, closer: closer, prefix: prefix}
}

func (s *RedisSource) Name() string { return "redis:" + s.prefix }

func (s *RedisSource) Get(ctx context.Context, file string) ([]byte, error) {
	name, err := cleanFile(file)
	if err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(s.Name(), name)
		}
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, nil
}

// Put stores data under file with no expiry.
func (s *RedisSource) Put(ctx context.Context, file string, data []byte) error {
	name, err := cleanFile(file)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
