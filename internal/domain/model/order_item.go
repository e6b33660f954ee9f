package model

import "time"

// 注文明細。作成後は更新しない
type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"not null;index" json:"orderId"`
	ProductID int64 `gorm:"not null;index" json:"productId"`
	//注文時点の単価
	Price     int64     `gorm:"not null" json:"price"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (it OrderItem) LineTotal() int64 {
	return it.Price * it.Quantity
}
