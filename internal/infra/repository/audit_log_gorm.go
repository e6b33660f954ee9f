package repository

import (
	"context"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// 新しい順
func (r *AuditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	page, limit := normalizePage(f.Page, f.Limit)

	q := r.db.WithContext(ctx).Model(&model.AuditLog{}).
		Where("resource_type = ?", f.ResourceType)
	if len(f.ResourceIDs) > 0 {
		q = q.Where("resource_id IN ?", f.ResourceIDs)
	}
	if f.Action != nil {
		q = q.Where("action = ?", *f.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.AuditLog
	if err := q.Order("created_at desc").Order("id desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

var _ repo.AuditLogRepository = (*AuditLogGormRepository)(nil)
