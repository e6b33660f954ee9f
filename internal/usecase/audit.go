package usecase

import (
	"encoding/json"

	"bookstore/internal/domain/model"
)

type orderAuditState struct {
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	TransactionID *string             `json:"transactionId"`
}

func orderAuditJSON(o model.Order) string {
	return mustJSON(orderAuditState{
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TransactionID: o.TransactionID,
	})
}

func shipmentAuditJSON(s model.Shipment) string {
	if s.ID == 0 {
		return ""
	}
	return mustJSON(s)
}

// 監査ログ用。失敗しても空文字で続ける
func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
