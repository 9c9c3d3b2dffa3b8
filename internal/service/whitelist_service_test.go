package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/models"
	"github.com/brigada-mx/brigada-api/internal/repository"
)

func newWhitelistService(t *testing.T) (WhitelistService, *gorm.DB, models.User) {
	t.Helper()

	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	svc := NewWhitelistService(
		repository.NewWhitelistRepository(db),
		repository.NewUserRepository(db),
		validator.New(), testLogger())
	return svc, db, admin
}

func TestWhitelistServiceCreateRejectsDuplicate(t *testing.T) {
	svc, _, admin := newWhitelistService(t)

	payload := dto.WhitelistCreateRequest{
		Identifier:     "persona@example.com",
		IdentifierType: "email",
		FullName:       "Persona Uno",
		AssignedRole:   "encargado",
	}
	created, err := svc.Create(context.Background(), payload, admin.ID)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.IsActivated)

	// Identifier comparison is case-insensitive.
	payload.Identifier = "PERSONA@example.com"
	_, err = svc.Create(context.Background(), payload, admin.ID)
	require.ErrorIs(t, err, ErrIdentifierTaken)
}

func TestWhitelistServiceBrigadistaRequiresSupervisor(t *testing.T) {
	svc, db, admin := newWhitelistService(t)

	payload := dto.WhitelistCreateRequest{
		Identifier:     "brigadista@example.com",
		IdentifierType: "email",
		FullName:       "Brigadista Nuevo",
		AssignedRole:   "brigadista",
	}
	_, err := svc.Create(context.Background(), payload, admin.ID)
	require.ErrorIs(t, err, ErrSupervisorRequired)

	missing := uint(999)
	payload.AssignedSupervisorID = &missing
	_, err = svc.Create(context.Background(), payload, admin.ID)
	require.ErrorIs(t, err, ErrSupervisorNotFound)

	brigadista := models.User{Email: "peer@example.com", HashedPassword: "x", FullName: "Peer", Role: models.RoleBrigadista, IsActive: true}
	require.NoError(t, db.Create(&brigadista).Error)
	payload.AssignedSupervisorID = &brigadista.ID
	_, err = svc.Create(context.Background(), payload, admin.ID)
	require.ErrorIs(t, err, ErrSupervisorRole)

	payload.AssignedSupervisorID = &admin.ID
	created, err := svc.Create(context.Background(), payload, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, created.AssignedSupervisor)
	require.Equal(t, admin.ID, created.AssignedSupervisor.ID)
}

func TestWhitelistServiceUpdateFrozenAfterActivation(t *testing.T) {
	svc, db, admin := newWhitelistService(t)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)
	require.NoError(t, db.Model(&entry).Update("is_activated", true).Error)

	name := "New Name"
	_, err := svc.Update(context.Background(), entry.ID, dto.WhitelistUpdateRequest{FullName: &name})
	require.ErrorIs(t, err, ErrWhitelistActivated)

	err = svc.Delete(context.Background(), entry.ID)
	require.ErrorIs(t, err, ErrWhitelistActivated)
}

func TestWhitelistServiceUpdateAppliesPartialChanges(t *testing.T) {
	svc, db, admin := newWhitelistService(t)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	name := "Nombre Corregido"
	notes := "updated by test"
	updated, err := svc.Update(context.Background(), entry.ID, dto.WhitelistUpdateRequest{
		FullName: &name,
		Notes:    &notes,
	})
	require.NoError(t, err)
	require.Equal(t, "Nombre Corregido", updated.FullName)
	require.Equal(t, "updated by test", updated.Notes)
	require.Equal(t, "persona@example.com", updated.Identifier, "identifier is immutable")

	_, err = svc.Update(context.Background(), entry.ID+100, dto.WhitelistUpdateRequest{FullName: &name})
	require.ErrorIs(t, err, ErrWhitelistNotFound)
}

func TestWhitelistServiceDelete(t *testing.T) {
	svc, db, admin := newWhitelistService(t)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	require.NoError(t, svc.Delete(context.Background(), entry.ID))

	var count int64
	require.NoError(t, db.Model(&models.WhitelistEntry{}).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, svc.Delete(context.Background(), entry.ID), ErrWhitelistNotFound)
}

// staleWhitelistRepo serves the pre-activation snapshot on the first read,
// mimicking an admin edit whose read raced a completion commit.
type staleWhitelistRepo struct {
	repository.WhitelistRepository
	stale bool
}

func (r *staleWhitelistRepo) GetByID(ctx context.Context, id uint) (models.WhitelistEntry, error) {
	entry, err := r.WhitelistRepository.GetByID(ctx, id)
	if err == nil && r.stale {
		r.stale = false
		entry.IsActivated = false
		entry.ActivatedUserID = nil
		entry.ActivatedAt = nil
	}
	return entry, err
}

func activateOutOfBand(t *testing.T, db *gorm.DB, entryID, userID uint) {
	t.Helper()

	now := time.Now()
	require.NoError(t, db.Model(&models.WhitelistEntry{}).Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"is_activated":      true,
			"activated_user_id": userID,
			"activated_at":      now,
		}).Error)
}

func TestWhitelistServiceUpdateLosesRaceWithCompletion(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)
	activateOutOfBand(t, db, entry.ID, admin.ID)

	repo := &staleWhitelistRepo{WhitelistRepository: repository.NewWhitelistRepository(db), stale: true}
	svc := NewWhitelistService(repo, repository.NewUserRepository(db), validator.New(), testLogger())

	name := "Overwritten Name"
	_, err := svc.Update(context.Background(), entry.ID, dto.WhitelistUpdateRequest{FullName: &name})
	require.ErrorIs(t, err, ErrWhitelistActivated)

	var reloaded models.WhitelistEntry
	require.NoError(t, db.First(&reloaded, entry.ID).Error)
	require.True(t, reloaded.IsActivated)
	require.NotNil(t, reloaded.ActivatedUserID)
	require.NotNil(t, reloaded.ActivatedAt)
	require.Equal(t, "Whitelisted Person", reloaded.FullName)
}

func TestWhitelistServiceDeleteLosesRaceWithCompletion(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	code := models.ActivationCode{
		CodeHash:    "hash",
		WhitelistID: entry.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
		GeneratedBy: admin.ID,
		IsUsed:      true,
	}
	require.NoError(t, db.Create(&code).Error)
	activateOutOfBand(t, db, entry.ID, admin.ID)

	repo := &staleWhitelistRepo{WhitelistRepository: repository.NewWhitelistRepository(db), stale: true}
	svc := NewWhitelistService(repo, repository.NewUserRepository(db), validator.New(), testLogger())

	require.ErrorIs(t, svc.Delete(context.Background(), entry.ID), ErrWhitelistActivated)

	var entryCount, codeCount int64
	require.NoError(t, db.Model(&models.WhitelistEntry{}).Where("id = ?", entry.ID).Count(&entryCount).Error)
	require.NoError(t, db.Model(&models.ActivationCode{}).Where("whitelist_id = ?", entry.ID).Count(&codeCount).Error)
	require.Equal(t, int64(1), entryCount)
	require.Equal(t, int64(1), codeCount)
}

// unseenIdentifierRepo hides existing rows from the duplicate pre-check so
// the unique index is the only arbiter left between two concurrent creates.
type unseenIdentifierRepo struct {
	repository.WhitelistRepository
}

func (r unseenIdentifierRepo) GetByIdentifier(ctx context.Context, identifier string) (models.WhitelistEntry, error) {
	return models.WhitelistEntry{}, gorm.ErrRecordNotFound
}

func TestWhitelistServiceCreateDuplicateRaceIsConflict(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	svc := NewWhitelistService(
		unseenIdentifierRepo{repository.NewWhitelistRepository(db)},
		repository.NewUserRepository(db),
		validator.New(), testLogger())

	_, err := svc.Create(context.Background(), dto.WhitelistCreateRequest{
		Identifier:     "persona@example.com",
		IdentifierType: "email",
		FullName:       "Second Writer",
		AssignedRole:   "encargado",
	}, admin.ID)
	require.ErrorIs(t, err, ErrIdentifierTaken)
}

func TestWhitelistServiceListClampsOversizedLimit(t *testing.T) {
	svc, db, admin := newWhitelistService(t)
	for i := 0; i < 25; i++ {
		seedEntry(t, db, fmt.Sprintf("persona%02d@example.com", i), models.RoleEncargado, admin.ID)
	}

	resp, err := svc.List(context.Background(), dto.WhitelistListRequest{Limit: 500})
	require.NoError(t, err)
	require.Len(t, resp.Items, 20)
	require.Equal(t, 20, resp.Pagination.Limit)
	require.Equal(t, int64(25), resp.Pagination.TotalItems)
	require.Equal(t, 2, resp.Pagination.TotalPages)
	require.True(t, resp.Pagination.HasNext)
}

func TestWhitelistServiceListEchoesFilters(t *testing.T) {
	svc, db, admin := newWhitelistService(t)
	seedEntry(t, db, "uno@example.com", models.RoleEncargado, admin.ID)
	seedEntry(t, db, "dos@example.com", models.RoleEncargado, admin.ID)

	resp, err := svc.List(context.Background(), dto.WhitelistListRequest{Status: "pending", Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, int64(2), resp.Pagination.TotalItems)
	require.Equal(t, 2, resp.Pagination.TotalPages)
	require.True(t, resp.Pagination.HasNext)
	require.Equal(t, "pending", resp.Filters["status"])
}
