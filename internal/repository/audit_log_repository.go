package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

// 対象リソースで絞る。Limitは1..100（0なら既定）
type AuditLogFilter struct {
	ResourceType model.AuditResourceType
	ResourceIDs  []int64
	Action       *model.AuditAction
	Page         int
	Limit        int
}

// 書き込みと同じトランザクションで残す
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}
