package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// CodeFilter narrows activation code listing queries.
type CodeFilter struct {
	Page        int
	Limit       int
	Status      string // active, used, expired, locked, or empty for all
	WhitelistID *uint
	SortBy      string // generated_at, expires_at
	SortOrder   string // asc, desc
}

// ActivationCodeRepository persists one-time activation codes. Codes are
// never deleted outside of a whitelist cascade; revocation and redemption are
// the only mutations.
type ActivationCodeRepository interface {
	Create(ctx context.Context, code *models.ActivationCode) error
	GetByID(ctx context.Context, id uint) (models.ActivationCode, error)
	List(ctx context.Context, filter CodeFilter) ([]models.ActivationCode, int64, error)
	// ListUnused returns every not-yet-used code with its whitelist entry and
	// supervisor preloaded. Callers establish code identity by comparing each
	// hash; the hash is non-invertible so no indexed lookup exists.
	ListUnused(ctx context.Context) ([]models.ActivationCode, error)
	// RecordAttempt increments the attempt counter and stamps the attempt
	// metadata in a single update, returning the refreshed row.
	RecordAttempt(ctx context.Context, id uint, ip string, at time.Time) (models.ActivationCode, error)
	// Revoke forces the attempt counter to the revocation sentinel. It
	// affects zero rows if the code was redeemed in the meantime.
	Revoke(ctx context.Context, id uint) error
}

type activationCodeRepository struct {
	db *gorm.DB
}

// NewActivationCodeRepository constructs an activation code repository.
func NewActivationCodeRepository(db *gorm.DB) ActivationCodeRepository {
	return &activationCodeRepository{db: db}
}

func (r *activationCodeRepository) Create(ctx context.Context, code *models.ActivationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *activationCodeRepository) GetByID(ctx context.Context, id uint) (models.ActivationCode, error) {
	var code models.ActivationCode
	err := r.db.WithContext(ctx).
		Preload("WhitelistEntry").
		Preload("UsedByUser").
		Preload("Generator").
		First(&code, id).Error
	if err != nil {
		return models.ActivationCode{}, err
	}

	return code, nil
}

func (r *activationCodeRepository) List(ctx context.Context, filter CodeFilter) ([]models.ActivationCode, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivationCode{})

	now := time.Now()
	switch filter.Status {
	case string(models.CodeStatusActive):
		query = query.Where("is_used = ? AND expires_at > ? AND activation_attempts < ?",
			false, now, models.MaxActivationAttempts)
	case string(models.CodeStatusUsed):
		query = query.Where("is_used = ?", true)
	case string(models.CodeStatusExpired):
		query = query.Where("is_used = ? AND expires_at <= ? AND activation_attempts < ?",
			false, now, models.MaxActivationAttempts)
	case string(models.CodeStatusLocked):
		query = query.Where("is_used = ? AND activation_attempts >= ?", false, models.MaxActivationAttempts)
	}

	if filter.WhitelistID != nil {
		query = query.Where("whitelist_id = ?", *filter.WhitelistID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column := "generated_at"
	if filter.SortBy == "expires_at" {
		column = "expires_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}
	query = query.Order(column + " " + direction)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query = query.Offset((page - 1) * limit).Limit(limit)

	var codes []models.ActivationCode
	err := query.
		Preload("WhitelistEntry").
		Preload("UsedByUser").
		Preload("Generator").
		Find(&codes).Error
	if err != nil {
		return nil, 0, err
	}

	return codes, total, nil
}

func (r *activationCodeRepository) ListUnused(ctx context.Context) ([]models.ActivationCode, error) {
	var codes []models.ActivationCode
	err := r.db.WithContext(ctx).
		Preload("WhitelistEntry").
		Preload("WhitelistEntry.AssignedSupervisor").
		Where("is_used = ?", false).
		Find(&codes).Error
	if err != nil {
		return nil, err
	}

	return codes, nil
}

func (r *activationCodeRepository) RecordAttempt(ctx context.Context, id uint, ip string, at time.Time) (models.ActivationCode, error) {
	err := r.db.WithContext(ctx).Model(&models.ActivationCode{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"activation_attempts": gorm.Expr("activation_attempts + 1"),
			"last_attempt_at":     at,
			"last_attempt_ip":     ip,
		}).Error
	if err != nil {
		return models.ActivationCode{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *activationCodeRepository) Revoke(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.ActivationCode{}).
		Where("id = ? AND is_used = ?", id, false).
		UpdateColumn("activation_attempts", models.RevokedAttempts)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
