package usecase

import (
	"strings"

	"bookstore/internal/domain/model"

	"go.uber.org/zap"
)

// 支払い方法から初期の支払いステータスを決める。以後は管理者が自由に上書きできる
type PaymentStatusResolver struct {
	registry model.PaymentRegistry
	log      *zap.Logger
}

func NewPaymentStatusResolver(registry model.PaymentRegistry, log *zap.Logger) *PaymentStatusResolver {
	return &PaymentStatusResolver{registry: registry, log: log}
}

func (r *PaymentStatusResolver) ResolveInitial(paymentMethod string) (model.PaymentStatus, error) {
	method := strings.TrimSpace(paymentMethod)
	if method == "" {
		return "", validationError("payment_method is required")
	}

	status, known := r.registry.Lookup(method)
	if !known {
		//未登録の方法。既定値を使ったことを残す
		r.log.Warn("payment method not registered, using fallback status",
			zap.String("payment_method", method),
			zap.String("status", string(status)),
		)
	}
	return status, nil
}

// 遷移制限なし（PAID -> UNPAID も返金処理のため可）
func (r *PaymentStatusResolver) Override(current model.PaymentStatus, requested string) (model.PaymentStatus, error) {
	st, ok := model.ParsePaymentStatus(strings.TrimSpace(requested))
	if !ok {
		return current, validationError("invalid paymentStatus")
	}
	return st, nil
}
