package repository

import (
	"context"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditLogRepository) List(ctx context.Context, eventType, orderNumber string, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	if orderNumber != "" {
		q = q.Where("order_number = ?", orderNumber)
	}
	var out []models.AuditLog
	err := q.Find(&out).Error
	return out, err
}
