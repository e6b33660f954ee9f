package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type OrderListFilter struct {
	Page   int
	Limit  int
	Status *model.OrderStatus
	UserID *int64
}

// nilの項目は更新しない
type OrderPatch struct {
	Status        *model.OrderStatus
	PaymentStatus *model.PaymentStatus
	TransactionID *string
}

func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.TransactionID == nil
}

type OrderRepository interface {
	//明細（商品付き）もまとめて取得
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	//ヘッダだけ作る。明細は OrderItemRepository
	Create(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, orderID int64, patch OrderPatch) error

	//同じキーなら同じ注文
	FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error)
}
