package cache

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/config"
	repo "bookstore/internal/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bookstore:idem:"

type RedisIdempotencyStore struct {
	rdb *redis.Client
}

func NewRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func NewRedisIdempotencyStore(rdb *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, keyPrefix+key, value, ttl).Err()
}

// REDIS_ADDR未設定のとき。キーは覚えない
type NopIdempotencyStore struct{}

func (NopIdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NopIdempotencyStore) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

var (
	_ repo.IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ repo.IdempotencyStore = NopIdempotencyStore{}
)
