package model

import "fmt"

// ステータス遷移のチェックはここに集める。
// 今は管理者の裁量で全遷移を許可している（呼び出し側はこの関数だけを見る）
type TransitionError struct {
	Resource string
	From     string
	To       string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change %s status from %s to %s", e.Resource, e.From, e.To)
}

type orderTransitionRule func(from, to OrderStatus) bool

type shipmentTransitionRule func(from, to ShipmentStatus) bool

// 禁止したい遷移ができたらここに足す（例: DELIVERED -> PENDING）
var (
	orderTransitionRules    []orderTransitionRule
	shipmentTransitionRules []shipmentTransitionRule
)

func ValidateOrderTransition(from, to OrderStatus) error {
	if _, ok := ParseOrderStatus(string(to)); !ok {
		return &TransitionError{Resource: "order", From: string(from), To: string(to)}
	}
	for _, forbidden := range orderTransitionRules {
		if forbidden(from, to) {
			return &TransitionError{Resource: "order", From: string(from), To: string(to)}
		}
	}
	return nil
}

func ValidateShipmentTransition(from, to ShipmentStatus) error {
	if _, ok := ParseShipmentStatus(string(to)); !ok {
		return &TransitionError{Resource: "shipment", From: string(from), To: string(to)}
	}
	for _, forbidden := range shipmentTransitionRules {
		if forbidden(from, to) {
			return &TransitionError{Resource: "shipment", From: string(from), To: string(to)}
		}
	}
	return nil
}
