package usecase

import (
	"time"

	"bookstore/internal/domain/model"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 指標の記録先（prometheus実装は infra/metrics）
type Metrics interface {
	OrderCreated(status model.PaymentStatus)
	OrderCreateFailed(reason string)
	FulfillmentSaved(result string)
	Reconciled(result string)
}

type NopMetrics struct{}

func (NopMetrics) OrderCreated(model.PaymentStatus) {}
func (NopMetrics) OrderCreateFailed(string)         {}
func (NopMetrics) FulfillmentSaved(string)          {}
func (NopMetrics) Reconciled(string)                {}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func newPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func validatePage(page, limit int) error {
	if page < 1 {
		return validationError("invalid page")
	}
	if limit < 1 || limit > 100 {
		return validationError("invalid limit")
	}
	return nil
}
