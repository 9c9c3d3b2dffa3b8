package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// AuditLogFilter narrows audit trail queries.
type AuditLogFilter struct {
	Page        int
	Limit       int
	EventType   string
	WhitelistID *uint
	Success     *bool
}

// AuditLogRepository appends to the activation audit trail. The trail is
// append-only; entries are never updated or deleted.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.ActivationAuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.ActivationAuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.ActivationAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.ActivationAuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivationAuditLog{})

	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	if filter.WhitelistID != nil {
		query = query.Where("whitelist_id = ?", *filter.WhitelistID)
	}

	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query = query.Offset((page - 1) * limit).Limit(limit)

	var entries []models.ActivationAuditLog
	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
