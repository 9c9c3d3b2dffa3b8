package service

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
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

func seedAdmin(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	admin := models.User{
		Email:          "admin@example.com",
		HashedPassword: "x",
		FullName:       "Admin",
		Role:           models.RoleAdmin,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&admin).Error)
	return admin
}

func seedEntry(t *testing.T, db *gorm.DB, identifier string, role models.Role, createdBy uint) models.WhitelistEntry {
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
