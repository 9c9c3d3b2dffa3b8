package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/models"
)

func TestActivationCodeRepositoryRecordAttempt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivationCodeRepository(db)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	entry := seedWhitelistEntry(t, db, "person@example.com", models.RoleEncargado, admin.ID)

	code := models.ActivationCode{
		CodeHash:    "hash",
		WhitelistID: entry.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
		GeneratedBy: admin.ID,
	}
	require.NoError(t, repo.Create(context.Background(), &code))

	at := time.Now()
	refreshed, err := repo.RecordAttempt(context.Background(), code.ID, "203.0.113.7", at)
	require.NoError(t, err)
	require.Equal(t, 1, refreshed.ActivationAttempts)
	require.Equal(t, "203.0.113.7", refreshed.LastAttemptIP)
	require.NotNil(t, refreshed.LastAttemptAt)

	refreshed, err = repo.RecordAttempt(context.Background(), code.ID, "203.0.113.8", at)
	require.NoError(t, err)
	require.Equal(t, 2, refreshed.ActivationAttempts)
	require.Equal(t, "203.0.113.8", refreshed.LastAttemptIP)
	require.NotNil(t, refreshed.WhitelistEntry)
	require.Equal(t, entry.ID, refreshed.WhitelistEntry.ID)
}

func TestActivationCodeRepositoryRevoke(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivationCodeRepository(db)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	entry := seedWhitelistEntry(t, db, "person@example.com", models.RoleEncargado, admin.ID)

	code := models.ActivationCode{
		CodeHash:    "hash",
		WhitelistID: entry.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
		GeneratedBy: admin.ID,
	}
	require.NoError(t, repo.Create(context.Background(), &code))

	require.NoError(t, repo.Revoke(context.Background(), code.ID))

	stored, err := repo.GetByID(context.Background(), code.ID)
	require.NoError(t, err)
	require.Equal(t, models.RevokedAttempts, stored.ActivationAttempts)
	require.Equal(t, models.CodeStatusLocked, stored.Status(time.Now()))
}

func TestActivationCodeRepositoryRevokeUsedAffectsNothing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivationCodeRepository(db)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	entry := seedWhitelistEntry(t, db, "person@example.com", models.RoleEncargado, admin.ID)

	used := models.ActivationCode{
		CodeHash:    "hash",
		WhitelistID: entry.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
		GeneratedBy: admin.ID,
		IsUsed:      true,
	}
	require.NoError(t, repo.Create(context.Background(), &used))

	require.ErrorIs(t, repo.Revoke(context.Background(), used.ID), gorm.ErrRecordNotFound)

	stored, err := repo.GetByID(context.Background(), used.ID)
	require.NoError(t, err)
	require.Zero(t, stored.ActivationAttempts)
}

func TestActivationCodeRepositoryListUnusedExcludesRedeemed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivationCodeRepository(db)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	entry := seedWhitelistEntry(t, db, "person@example.com", models.RoleEncargado, admin.ID)

	open := models.ActivationCode{CodeHash: "open", WhitelistID: entry.ID, ExpiresAt: time.Now().Add(time.Hour), GeneratedBy: admin.ID}
	redeemed := models.ActivationCode{CodeHash: "redeemed", WhitelistID: entry.ID, ExpiresAt: time.Now().Add(time.Hour), GeneratedBy: admin.ID, IsUsed: true}
	require.NoError(t, repo.Create(context.Background(), &open))
	require.NoError(t, repo.Create(context.Background(), &redeemed))

	codes, err := repo.ListUnused(context.Background())
	require.NoError(t, err)
	require.Len(t, codes, 1)
	require.Equal(t, "open", codes[0].CodeHash)
	require.NotNil(t, codes[0].WhitelistEntry)
	require.Equal(t, "person@example.com", codes[0].WhitelistEntry.Identifier)
}

func TestActivationCodeRepositoryListByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivationCodeRepository(db)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	entry := seedWhitelistEntry(t, db, "person@example.com", models.RoleEncargado, admin.ID)

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	active := models.ActivationCode{CodeHash: "active", WhitelistID: entry.ID, ExpiresAt: future, GeneratedBy: admin.ID}
	expired := models.ActivationCode{CodeHash: "expired", WhitelistID: entry.ID, ExpiresAt: past, GeneratedBy: admin.ID}
	locked := models.ActivationCode{CodeHash: "locked", WhitelistID: entry.ID, ExpiresAt: future, GeneratedBy: admin.ID, ActivationAttempts: models.MaxActivationAttempts}
	used := models.ActivationCode{CodeHash: "used", WhitelistID: entry.ID, ExpiresAt: future, GeneratedBy: admin.ID, IsUsed: true}
	for _, code := range []*models.ActivationCode{&active, &expired, &locked, &used} {
		require.NoError(t, repo.Create(context.Background(), code))
	}

	for status, wantHash := range map[string]string{
		"active":  "active",
		"expired": "expired",
		"locked":  "locked",
		"used":    "used",
	} {
		codes, total, err := repo.List(context.Background(), CodeFilter{Status: status})
		require.NoError(t, err)
		require.Equal(t, int64(1), total, "status %s", status)
		require.Equal(t, wantHash, codes[0].CodeHash)
	}

	all, total, err := repo.List(context.Background(), CodeFilter{WhitelistID: &entry.ID})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, all, 4)
}
