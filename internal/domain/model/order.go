package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// 一覧フィルタ・PATCHで受け付ける値
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentStatusUnpaid, PaymentStatusPaid:
		return PaymentStatus(s), true
	}
	return "", false
}

// 注文ヘッダ
// 顧客情報は注文時点のスナップショット（後からプロフィールを変えても変わらない）
type Order struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID *int64 `gorm:"index" json:"userId"`

	Name           string `gorm:"type:varchar(255);not null" json:"name"`
	Email          string `gorm:"type:varchar(255)" json:"email,omitempty"`
	PhoneNumber    string `gorm:"type:varchar(30);not null" json:"phone_number"`
	AltPhoneNumber string `gorm:"type:varchar(30)" json:"alt_phone_number,omitempty"`
	Country        string `gorm:"type:varchar(100);not null" json:"country"`
	District       string `gorm:"type:varchar(100);not null" json:"district"`
	Area           string `gorm:"type:varchar(100);not null" json:"area"`
	AddressDetails string `gorm:"type:text;not null" json:"address_details"`

	//金額は作成時に確定（再計算しない）
	Total        int64 `gorm:"not null" json:"total"`
	ShippingCost int64 `gorm:"not null" json:"shipping_cost"`
	GrandTotal   int64 `gorm:"not null" json:"grand_total"`

	PaymentMethod string        `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;index" json:"paymentStatus"`
	TransactionID *string       `gorm:"type:varchar(255)" json:"transactionId"`
	Image         *string       `gorm:"type:text" json:"image"`

	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IdempotencyKey *string     `gorm:"type:varchar(255);uniqueIndex" json:"-"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"orderItems"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// 本人の注文か（ゲスト注文は誰のものでもない）
func (o Order) IsOwnedBy(userID int64) bool {
	return o.UserID != nil && *o.UserID == userID
}
