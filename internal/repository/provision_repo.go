package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// ProvisionParams carries everything needed to turn a whitelist entry into a
// live account.
type ProvisionParams struct {
	CodeID      uint
	WhitelistID uint
	User        models.User
	Now         time.Time
}

// ProvisionRepository executes the account-provisioning transaction: create
// the user, retire the code, freeze the whitelist entry. All three writes
// commit together or not at all.
type ProvisionRepository interface {
	// Provision runs the transaction. It returns gorm.ErrRecordNotFound when
	// the code or whitelist entry was claimed by a concurrent redemption; the
	// transaction rolls back and no user survives.
	Provision(ctx context.Context, params ProvisionParams) (models.User, error)
}

type provisionRepository struct {
	db *gorm.DB
}

// NewProvisionRepository constructs a provisioning repository.
func NewProvisionRepository(db *gorm.DB) ProvisionRepository {
	return &provisionRepository{db: db}
}

func (r *provisionRepository) Provision(ctx context.Context, params ProvisionParams) (models.User, error) {
	user := params.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		// The guard on is_used decides the double-redemption race: whichever
		// transaction commits first flips it, the loser affects zero rows and
		// rolls back the user it just created.
		result := tx.Model(&models.ActivationCode{}).
			Where("id = ? AND is_used = ?", params.CodeID, false).
			Updates(map[string]interface{}{
				"is_used":         true,
				"used_at":         params.Now,
				"used_by_user_id": user.ID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		result = tx.Model(&models.WhitelistEntry{}).
			Where("id = ? AND is_activated = ?", params.WhitelistID, false).
			Updates(map[string]interface{}{
				"is_activated":      true,
				"activated_at":      params.Now,
				"activated_user_id": user.ID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}
