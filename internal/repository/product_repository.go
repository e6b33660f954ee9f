package repository

import (
	"bookstore/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// カタログの読み取りだけを約束（商品CRUDはこのサービスの外）
type ProductRepository interface {
	//見つかった分だけ返す（欠けているIDの判定は呼び出し側）
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}
