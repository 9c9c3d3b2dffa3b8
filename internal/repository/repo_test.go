package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// setupTestDB opens a named in-memory database so every test gets its own
// isolated store while connections from the pool still share state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.WhitelistEntry{},
		&models.ActivationCode{},
		&models.ActivationAuditLog{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()

	user := models.User{
		Email:          email,
		HashedPassword: "x",
		FullName:       "Seed User",
		Role:           role,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedWhitelistEntry(t *testing.T, db *gorm.DB, identifier string, role models.Role, createdBy uint) models.WhitelistEntry {
	t.Helper()

	entry := models.WhitelistEntry{
		Identifier:     identifier,
		IdentifierType: models.IdentifierEmail,
		FullName:       "Whitelisted Person",
		AssignedRole:   role,
		CreatedBy:      createdBy,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}
