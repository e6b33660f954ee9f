package model

import "time"

type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "PENDING"
	ShipmentStatusInTransit      ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusOutForDelivery ShipmentStatus = "OUT_FOR_DELIVERY"
	ShipmentStatusDelivered      ShipmentStatus = "DELIVERED"
	ShipmentStatusReturned       ShipmentStatus = "RETURNED"
	ShipmentStatusCancelled      ShipmentStatus = "CANCELLED"
)

var ShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPending,
	ShipmentStatusInTransit,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
	ShipmentStatusReturned,
	ShipmentStatusCancelled,
}

func ParseShipmentStatus(s string) (ShipmentStatus, bool) {
	for _, st := range ShipmentStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// 配送記録。1注文につき0..1件（一意制約はなく、読むときは最初の1件）
type Shipment struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64          `gorm:"not null;index" json:"orderId"`
	Courier        *string        `gorm:"type:varchar(100)" json:"courier"`
	TrackingNumber *string        `gorm:"type:varchar(255)" json:"trackingNumber"`
	Status         ShipmentStatus `gorm:"type:varchar(30);not null;index" json:"status"`
	ShippedAt      *time.Time     `json:"shippedAt"`
	ExpectedDate   *time.Time     `json:"expectedDate"`
	DeliveredAt    *time.Time     `json:"deliveredAt"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// 出荷済み扱いのステータスか（shippedAtの自動設定に使う）
func (s ShipmentStatus) HasLeftWarehouse() bool {
	switch s {
	case ShipmentStatusInTransit, ShipmentStatusOutForDelivery, ShipmentStatusDelivered:
		return true
	}
	return false
}
