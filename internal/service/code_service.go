package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/models"
	"github.com/brigada-mx/brigada-api/internal/repository"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

// ErrCodeNotFound indicates the requested activation code does not exist.
var ErrCodeNotFound = errors.New("activation code not found")

// ErrCodeUsed indicates the code was already redeemed and can no longer be
// revoked.
var ErrCodeUsed = errors.New("activation code already used")

const codeLength = 6

// CodeService manages the activation code vault: issuance, listing,
// revocation and hash-comparison lookup.
type CodeService interface {
	Issue(ctx context.Context, payload dto.GenerateCodeRequest, issuedBy uint, ip string) (dto.GenerateCodeResponse, error)
	List(ctx context.Context, payload dto.CodeListRequest) (dto.CodeListResponse, error)
	Revoke(ctx context.Context, codeID uint, payload dto.RevokeCodeRequest, ip string) (dto.RevokeCodeResponse, error)
	// FindByPlainCode scans every unused code and compares the submitted
	// value against each hash. Lookup cost is linear in the count of
	// outstanding codes; the hash is non-invertible so no index can help.
	// Returns nil when nothing matches.
	FindByPlainCode(ctx context.Context, plainCode string) (*models.ActivationCode, error)
}

type codeService struct {
	codes      repository.ActivationCodeRepository
	whitelist  repository.WhitelistRepository
	audit      repository.AuditLogRepository
	notifier   ActivationNotifier
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
	defaultTTL int
	maxTTL     int
}

// NewCodeService builds a code service. The notifier is an injected
// collaborator so tests can substitute a fake.
func NewCodeService(
	codes repository.ActivationCodeRepository,
	whitelist repository.WhitelistRepository,
	audit repository.AuditLogRepository,
	notifier ActivationNotifier,
	validate *validator.Validate,
	logger zerolog.Logger,
	defaultExpiryHours, maxExpiryHours int,
) CodeService {
	if defaultExpiryHours <= 0 {
		defaultExpiryHours = 72
	}
	if maxExpiryHours < defaultExpiryHours {
		maxExpiryHours = defaultExpiryHours
	}

	return &codeService{
		codes:      codes,
		whitelist:  whitelist,
		audit:      audit,
		notifier:   notifier,
		validator:  validate,
		logger:     logger.With().Str("component", "code_service").Logger(),
		now:        time.Now,
		defaultTTL: defaultExpiryHours,
		maxTTL:     maxExpiryHours,
	}
}

func (s *codeService) Issue(ctx context.Context, payload dto.GenerateCodeRequest, issuedBy uint, ip string) (dto.GenerateCodeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GenerateCodeResponse{}, err
	}

	entry, err := s.whitelist.GetByID(ctx, payload.WhitelistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GenerateCodeResponse{}, ErrWhitelistNotFound
		}
		return dto.GenerateCodeResponse{}, err
	}

	if entry.IsActivated {
		return dto.GenerateCodeResponse{}, ErrWhitelistActivated
	}

	expiresIn := payload.ExpiresInHours
	if expiresIn <= 0 {
		expiresIn = s.defaultTTL
	}
	if expiresIn > s.maxTTL {
		expiresIn = s.maxTTL
	}

	plainCode, err := generateActivationCode()
	if err != nil {
		return dto.GenerateCodeResponse{}, err
	}

	codeHash, err := utils.HashSecret(plainCode)
	if err != nil {
		return dto.GenerateCodeResponse{}, err
	}

	expiresAt := s.now().Add(time.Duration(expiresIn) * time.Hour)
	code := models.ActivationCode{
		CodeHash:    codeHash,
		WhitelistID: entry.ID,
		ExpiresAt:   expiresAt,
		GeneratedBy: issuedBy,
	}

	if err := s.codes.Create(ctx, &code); err != nil {
		return dto.GenerateCodeResponse{}, err
	}

	s.appendAudit(ctx, models.ActivationAuditLog{
		EventType:        models.AuditCodeGenerated,
		ActivationCodeID: &code.ID,
		WhitelistID:      &entry.ID,
		IPAddress:        ip,
		Success:          true,
	})

	s.logger.Info().
		Uint("code_id", code.ID).
		Uint("whitelist_id", entry.ID).
		Int("expires_in_hours", expiresIn).
		Msg("activation code issued")

	emailSent := false
	emailStatus := ""
	sendEmail := payload.SendEmail == nil || *payload.SendEmail
	if sendEmail && entry.IdentifierType == models.IdentifierEmail {
		// Delivery is best-effort: a notifier failure surfaces only as a
		// status flag, never as an error on the issuance itself.
		err := s.notifier.SendActivationEmail(ctx, ActivationEmail{
			To:             entry.Identifier,
			FullName:       entry.FullName,
			Code:           plainCode,
			ExpiresInHours: expiresIn,
			CustomMessage:  payload.CustomMessage,
		})
		if err != nil {
			emailStatus = "failed: " + err.Error()
			s.logger.Warn().Err(err).Uint("code_id", code.ID).Msg("activation email delivery failed")
		} else {
			emailSent = true
			emailStatus = "sent"
		}
	}

	return dto.GenerateCodeResponse{
		Code:   plainCode,
		CodeID: code.ID,
		WhitelistEntry: dto.WhitelistEntryInfo{
			ID:           entry.ID,
			Identifier:   entry.Identifier,
			FullName:     entry.FullName,
			AssignedRole: string(entry.AssignedRole),
		},
		ExpiresAt:      expiresAt,
		ExpiresInHours: expiresIn,
		EmailSent:      emailSent,
		EmailStatus:    emailStatus,
	}, nil
}

func (s *codeService) List(ctx context.Context, payload dto.CodeListRequest) (dto.CodeListResponse, error) {
	page, limit := dto.NormalizePageLimit(payload.Page, payload.Limit)
	codes, total, err := s.codes.List(ctx, repository.CodeFilter{
		Page:        page,
		Limit:       limit,
		Status:      payload.Status,
		WhitelistID: payload.WhitelistID,
		SortBy:      payload.SortBy,
		SortOrder:   payload.SortOrder,
	})
	if err != nil {
		return dto.CodeListResponse{}, err
	}

	now := s.now()
	items := make([]dto.CodeResponse, 0, len(codes))
	for _, code := range codes {
		items = append(items, dto.NewCodeResponse(code, now))
	}

	status := payload.Status
	if status == "" {
		status = "all"
	}

	return dto.CodeListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, limit, total),
		Filters: map[string]any{
			"status":       status,
			"whitelist_id": payload.WhitelistID,
			"sort_by":      payload.SortBy,
			"sort_order":   payload.SortOrder,
		},
	}, nil
}

func (s *codeService) Revoke(ctx context.Context, codeID uint, payload dto.RevokeCodeRequest, ip string) (dto.RevokeCodeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RevokeCodeResponse{}, err
	}

	code, err := s.codes.GetByID(ctx, codeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RevokeCodeResponse{}, ErrCodeNotFound
		}
		return dto.RevokeCodeResponse{}, err
	}

	if code.IsUsed {
		return dto.RevokeCodeResponse{}, ErrCodeUsed
	}

	if err := s.codes.Revoke(ctx, codeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Redeemed between the read and the revoke.
			return dto.RevokeCodeResponse{}, ErrCodeUsed
		}
		return dto.RevokeCodeResponse{}, err
	}

	s.appendAudit(ctx, models.ActivationAuditLog{
		EventType:        models.AuditCodeRevoked,
		ActivationCodeID: &code.ID,
		WhitelistID:      &code.WhitelistID,
		IPAddress:        ip,
		Success:          true,
		Metadata:         datatypes.JSONMap{"reason": payload.Reason},
	})

	s.logger.Info().Uint("code_id", codeID).Msg("activation code revoked")

	return dto.RevokeCodeResponse{
		Success:   true,
		Message:   "Activation code revoked successfully",
		CodeID:    codeID,
		RevokedAt: s.now(),
	}, nil
}

func (s *codeService) FindByPlainCode(ctx context.Context, plainCode string) (*models.ActivationCode, error) {
	codes, err := s.codes.ListUnused(ctx)
	if err != nil {
		return nil, err
	}

	for i := range codes {
		if utils.VerifySecret(plainCode, codes[i].CodeHash) {
			return &codes[i], nil
		}
	}

	return nil, nil
}

// appendAudit writes an audit entry outside the caller's critical path; a
// failed append is logged but never propagated.
func (s *codeService) appendAudit(ctx context.Context, entry models.ActivationAuditLog) {
	if err := s.audit.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Str("event_type", entry.EventType).Msg("failed to append audit entry")
	}
}

// generateActivationCode draws six digits independently from a
// cryptographically secure source. Leading zeros are valid; the code is a
// string, not a bounded integer. Collisions across entries are tolerated and
// disambiguated at validation time by hash comparison.
func generateActivationCode() (string, error) {
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
