package model

import "time"

//在庫調整の履歴（ORDER_RESERVE_STOCK有効時の注文引当もここに残す）

type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	OrderID     *int64    `gorm:"index" json:"order_id"`
	ActorUserID *int64    `gorm:"index" json:"actor_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
