package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type ShipmentGormRepository struct {
	db *gorm.DB
}

func NewShipmentGormRepository(db *gorm.DB) *ShipmentGormRepository {
	return &ShipmentGormRepository{db: db}
}

func (r *ShipmentGormRepository) FindByID(ctx context.Context, shipmentID int64) (model.Shipment, error) {
	var s model.Shipment
	err := r.db.WithContext(ctx).Where("id = ?", shipmentID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Shipment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Shipment{}, err
	}
	return s, nil
}

// 作成順で最初の1件を正とする
func (r *ShipmentGormRepository) FindFirstByOrderID(ctx context.Context, orderID int64) (model.Shipment, bool, error) {
	var list []model.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Order("id asc").
		Limit(1).
		Find(&list).Error
	if err != nil {
		return model.Shipment{}, false, err
	}
	if len(list) == 0 {
		return model.Shipment{}, false, nil
	}
	return list[0], true, nil
}

func (r *ShipmentGormRepository) List(ctx context.Context, f repo.ShipmentListFilter) ([]model.Shipment, int64, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)

	q := r.db.WithContext(ctx).Model(&model.Shipment{})
	if f.OrderID != nil {
		q = q.Where("order_id = ?", *f.OrderID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Shipment{}, 0, err
	}

	var items []model.Shipment
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("created_at asc").Order("id asc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Shipment{}, 0, err
	}
	return items, total, nil
}

func (r *ShipmentGormRepository) Create(ctx context.Context, shipment *model.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *ShipmentGormRepository) Update(ctx context.Context, shipmentID int64, patch repo.ShipmentPatch) error {
	updates := map[string]interface{}{}
	if patch.Courier != nil {
		updates["courier"] = *patch.Courier
	}
	if patch.TrackingNumber != nil {
		updates["tracking_number"] = *patch.TrackingNumber
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.ShippedAt != nil {
		updates["shipped_at"] = *patch.ShippedAt
	}
	if patch.ExpectedDate != nil {
		updates["expected_date"] = *patch.ExpectedDate
	}
	if patch.DeliveredAt != nil {
		updates["delivered_at"] = *patch.DeliveredAt
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.Shipment{}).
		Where("id = ?", shipmentID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
