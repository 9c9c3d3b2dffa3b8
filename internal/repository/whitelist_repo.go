package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// WhitelistFilter narrows whitelist listing queries.
type WhitelistFilter struct {
	Page         int
	Limit        int
	Status       string // pending, activated, or empty for all
	Role         string
	Search       string
	SupervisorID *uint
	SortBy       string // created_at, full_name, identifier
	SortOrder    string // asc, desc
}

// WhitelistRepository persists pre-authorization records.
type WhitelistRepository interface {
	Create(ctx context.Context, entry *models.WhitelistEntry) error
	GetByID(ctx context.Context, id uint) (models.WhitelistEntry, error)
	GetByIdentifier(ctx context.Context, identifier string) (models.WhitelistEntry, error)
	List(ctx context.Context, filter WhitelistFilter) ([]models.WhitelistEntry, int64, error)
	Update(ctx context.Context, entry *models.WhitelistEntry) error
	Delete(ctx context.Context, id uint) error
}

type whitelistRepository struct {
	db *gorm.DB
}

// NewWhitelistRepository constructs a whitelist repository.
func NewWhitelistRepository(db *gorm.DB) WhitelistRepository {
	return &whitelistRepository{db: db}
}

func (r *whitelistRepository) Create(ctx context.Context, entry *models.WhitelistEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *whitelistRepository) GetByID(ctx context.Context, id uint) (models.WhitelistEntry, error) {
	var entry models.WhitelistEntry
	err := r.db.WithContext(ctx).
		Preload("AssignedSupervisor").
		Preload("ActivatedUser").
		Preload("Creator").
		Preload("ActivationCodes").
		First(&entry, id).Error
	if err != nil {
		return models.WhitelistEntry{}, err
	}

	return entry, nil
}

func (r *whitelistRepository) GetByIdentifier(ctx context.Context, identifier string) (models.WhitelistEntry, error) {
	var entry models.WhitelistEntry
	err := r.db.WithContext(ctx).
		Where("LOWER(identifier) = ?", strings.ToLower(identifier)).
		First(&entry).Error
	if err != nil {
		return models.WhitelistEntry{}, err
	}

	return entry, nil
}

func (r *whitelistRepository) List(ctx context.Context, filter WhitelistFilter) ([]models.WhitelistEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WhitelistEntry{})

	switch filter.Status {
	case "pending":
		query = query.Where("is_activated = ?", false)
	case "activated":
		query = query.Where("is_activated = ?", true)
	}

	if filter.Role != "" {
		query = query.Where("assigned_role = ?", filter.Role)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(identifier) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)
	}

	if filter.SupervisorID != nil {
		query = query.Where("assigned_supervisor_id = ?", *filter.SupervisorID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(whitelistOrderClause(filter.SortBy, filter.SortOrder))

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query = query.Offset((page - 1) * limit).Limit(limit)

	var entries []models.WhitelistEntry
	err := query.
		Preload("AssignedSupervisor").
		Preload("ActivatedUser").
		Preload("Creator").
		Preload("ActivationCodes").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Update writes the mutable columns of a not-yet-activated entry. The guard
// on is_activated keeps a stale snapshot from overwriting a completion that
// committed after the caller's read; zero affected rows reports
// ErrRecordNotFound.
func (r *whitelistRepository) Update(ctx context.Context, entry *models.WhitelistEntry) error {
	result := r.db.WithContext(ctx).Model(&models.WhitelistEntry{}).
		Where("id = ? AND is_activated = ?", entry.ID, false).
		Select("full_name", "phone", "assigned_role", "assigned_supervisor_id", "notes").
		Updates(entry)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a not-yet-activated whitelist entry together with its
// activation codes. The entry delete carries the same is_activated guard as
// Update; when it affects zero rows the cascade is skipped, so a completion
// committing in the window keeps both the entry and its used code. Audit
// entries keep their nullable references and are never touched.
func (r *whitelistRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND is_activated = ?", id, false).Delete(&models.WhitelistEntry{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("whitelist_id = ?", id).Delete(&models.ActivationCode{}).Error
	})
}

func whitelistOrderClause(sortBy, sortOrder string) string {
	column := "created_at"
	switch sortBy {
	case "full_name":
		column = "full_name"
	case "identifier":
		column = "identifier"
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}

	return column + " " + direction
}
