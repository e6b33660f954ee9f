package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

type ShipmentListFilter struct {
	OrderID *int64
	Page    int
	Limit   int
}

// nilの項目は更新しない
type ShipmentPatch struct {
	Courier        *string
	TrackingNumber *string
	Status         *model.ShipmentStatus
	ShippedAt      *time.Time
	ExpectedDate   *time.Time
	DeliveredAt    *time.Time
}

func (p ShipmentPatch) IsEmpty() bool {
	return p.Courier == nil && p.TrackingNumber == nil && p.Status == nil &&
		p.ShippedAt == nil && p.ExpectedDate == nil && p.DeliveredAt == nil
}

type ShipmentRepository interface {
	FindByID(ctx context.Context, shipmentID int64) (model.Shipment, error)
	//複数あっても作成順で最初の1件
	FindFirstByOrderID(ctx context.Context, orderID int64) (model.Shipment, bool, error)
	List(ctx context.Context, f ShipmentListFilter) ([]model.Shipment, int64, error)
	Create(ctx context.Context, shipment *model.Shipment) error
	Update(ctx context.Context, shipmentID int64, patch ShipmentPatch) error
}
