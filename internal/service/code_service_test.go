package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/models"
	"github.com/brigada-mx/brigada-api/internal/repository"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

type notifierStub struct {
	mu     sync.Mutex
	sent   []ActivationEmail
	sendErr error
}

func (n *notifierStub) SendActivationEmail(_ context.Context, email ActivationEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, email)
	return nil
}

func TestCodeServiceIssueReturnsPlainCodeOnce(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	notifier := &notifierStub{}
	vault := NewCodeService(
		repository.NewActivationCodeRepository(db),
		repository.NewWhitelistRepository(db),
		repository.NewAuditLogRepository(db),
		notifier, validator.New(), testLogger(), 72, 168)

	resp, err := vault.Issue(context.Background(), dto.GenerateCodeRequest{WhitelistID: entry.ID}, admin.ID, "203.0.113.1")
	require.NoError(t, err)
	require.Len(t, resp.Code, 6)
	for _, r := range resp.Code {
		require.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", resp.Code)
	}
	require.Equal(t, 72, resp.ExpiresInHours)
	require.True(t, resp.EmailSent)
	require.Equal(t, "sent", resp.EmailStatus)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "persona@example.com", notifier.sent[0].To)
	require.Equal(t, resp.Code, notifier.sent[0].Code)

	// Only the bcrypt hash is at rest; the plain value verifies against it.
	var stored models.ActivationCode
	require.NoError(t, db.First(&stored, resp.CodeID).Error)
	require.NotEqual(t, resp.Code, stored.CodeHash)
	require.True(t, utils.VerifySecret(resp.Code, stored.CodeHash))

	var auditCount int64
	require.NoError(t, db.Model(&models.ActivationAuditLog{}).
		Where("event_type = ?", models.AuditCodeGenerated).Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)
}

func TestCodeServiceIssueRejectsActivatedEntry(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)
	require.NoError(t, db.Model(&entry).Update("is_activated", true).Error)

	vault := NewCodeService(
		repository.NewActivationCodeRepository(db),
		repository.NewWhitelistRepository(db),
		repository.NewAuditLogRepository(db),
		&notifierStub{}, validator.New(), testLogger(), 72, 168)

	_, err := vault.Issue(context.Background(), dto.GenerateCodeRequest{WhitelistID: entry.ID}, admin.ID, "203.0.113.1")
	require.ErrorIs(t, err, ErrWhitelistActivated)

	_, err = vault.Issue(context.Background(), dto.GenerateCodeRequest{WhitelistID: entry.ID + 100}, admin.ID, "203.0.113.1")
	require.ErrorIs(t, err, ErrWhitelistNotFound)
}

func TestCodeServiceIssueClampsExpiry(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	vault := NewCodeService(
		repository.NewActivationCodeRepository(db),
		repository.NewWhitelistRepository(db),
		repository.NewAuditLogRepository(db),
		&notifierStub{}, validator.New(), testLogger(), 72, 168)

	sendEmail := false
	resp, err := vault.Issue(context.Background(), dto.GenerateCodeRequest{
		WhitelistID:    entry.ID,
		ExpiresInHours: 1000,
		SendEmail:      &sendEmail,
	}, admin.ID, "203.0.113.1")
	require.NoError(t, err)
	require.Equal(t, 168, resp.ExpiresInHours)
	require.False(t, resp.EmailSent)
	require.Empty(t, resp.EmailStatus)
}

func TestCodeServiceIssueEmailFailureIsNonFatal(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	notifier := &notifierStub{sendErr: errors.New("smtp unreachable")}
	vault := NewCodeService(
		repository.NewActivationCodeRepository(db),
		repository.NewWhitelistRepository(db),
		repository.NewAuditLogRepository(db),
		notifier, validator.New(), testLogger(), 72, 168)

	resp, err := vault.Issue(context.Background(), dto.GenerateCodeRequest{WhitelistID: entry.ID}, admin.ID, "203.0.113.1")
	require.NoError(t, err)
	require.False(t, resp.EmailSent)
	require.Contains(t, resp.EmailStatus, "failed:")
	require.NotEmpty(t, resp.Code)
}

func TestCodeServiceRevokeLocksCodePermanently(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	codes := repository.NewActivationCodeRepository(db)
	vault := NewCodeService(codes,
		repository.NewWhitelistRepository(db),
		repository.NewAuditLogRepository(db),
		&notifierStub{}, validator.New(), testLogger(), 72, 168)

	sendEmail := false
	issued, err := vault.Issue(context.Background(), dto.GenerateCodeRequest{WhitelistID: entry.ID, SendEmail: &sendEmail}, admin.ID, "203.0.113.1")
	require.NoError(t, err)

	resp, err := vault.Revoke(context.Background(), issued.CodeID, dto.RevokeCodeRequest{Reason: "issued to the wrong person"}, "203.0.113.1")
	require.NoError(t, err)
	require.True(t, resp.Success)

	stored, err := codes.GetByID(context.Background(), issued.CodeID)
	require.NoError(t, err)
	require.Equal(t, models.RevokedAttempts, stored.ActivationAttempts)
	require.Equal(t, models.CodeStatusLocked, stored.Status(time.Now()))

	// A revoked code no longer matches in the redemption scan path either.
	found, err := vault.FindByPlainCode(context.Background(), issued.Code)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.True(t, found.IsLocked())

	var auditCount int64
	require.NoError(t, db.Model(&models.ActivationAuditLog{}).
		Where("event_type = ?", models.AuditCodeRevoked).Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)
}

func TestCodeServiceRevokeUsedCode(t *testing.T) {
	db := newServiceDB(t)
	admin := seedAdmin(t, db)
	entry := seedEntry(t, db, "persona@example.com", models.RoleEncargado, admin.ID)

	used := models.ActivationCode{
		CodeHash:    "hash",
		WhitelistID: entry.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
		GeneratedBy: admin.ID,
		IsUsed:      true,
	}
	require.NoError(t, db.Create(&used).Error)

	vault := NewCodeService(
		repository.NewActivationCodeRepository(db),
		repository.NewWhitelistRepository(db),
		repository.NewAuditLogRepository(db),
		&notifierStub{}, validator.New(), testLogger(), 72, 168)

	_, err := vault.Revoke(context.Background(), used.ID, dto.RevokeCodeRequest{Reason: "too late"}, "203.0.113.1")
	require.ErrorIs(t, err, ErrCodeUsed)

	_, err = vault.Revoke(context.Background(), used.ID+100, dto.RevokeCodeRequest{Reason: "missing"}, "203.0.113.1")
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCodeServiceFindByPlainCodeNoMatch(t *testing.T) {
	db := newServiceDB(t)

	vault := NewCodeService(
		repository.NewActivationCodeRepository(db),
		repository.NewWhitelistRepository(db),
		repository.NewAuditLogRepository(db),
		&notifierStub{}, validator.New(), testLogger(), 72, 168)

	found, err := vault.FindByPlainCode(context.Background(), "123456")
	require.NoError(t, err)
	require.Nil(t, found)
}
