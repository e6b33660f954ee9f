package model

// 代引きだけ未払いで始まる
const PaymentMethodCashOnDelivery = "CashOnDelivery"

// 支払い方法ごとの初期支払いステータス。
// 未登録の方法は Fallback を使う（暗黙にPAIDにしないため明示する）
type PaymentRegistry struct {
	Defaults map[string]PaymentStatus
	Fallback PaymentStatus
}

func DefaultPaymentRegistry() PaymentRegistry {
	return PaymentRegistry{
		Defaults: map[string]PaymentStatus{
			PaymentMethodCashOnDelivery: PaymentStatusUnpaid,
			"bkash":                     PaymentStatusPaid,
			"nagad":                     PaymentStatusPaid,
			"rocket":                    PaymentStatusPaid,
			"card":                      PaymentStatusPaid,
		},
		Fallback: PaymentStatusPaid,
	}
}

// known=false なら Fallback を返している
func (r PaymentRegistry) Lookup(method string) (status PaymentStatus, known bool) {
	if st, ok := r.Defaults[method]; ok {
		return st, true
	}
	return r.Fallback, false
}
