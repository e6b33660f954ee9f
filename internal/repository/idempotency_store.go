package repository

import (
	"context"
	"time"
)

// 同じキーの再送に前回の結果を返すための保存先
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
