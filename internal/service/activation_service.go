package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/models"
	"github.com/brigada-mx/brigada-api/internal/repository"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

// ErrInvalidOrExpiredCode is the generic redemption failure. It deliberately
// covers no-match, expired and locked codes alike so external probing cannot
// distinguish them.
var ErrInvalidOrExpiredCode = errors.New("invalid or expired activation code")

// ErrIdentifierMismatch indicates the submitted identifier does not belong to
// the matched whitelist entry.
var ErrIdentifierMismatch = errors.New("identifier does not match whitelist entry")

// ErrAccountExists indicates an account already owns the identifier.
var ErrAccountExists = errors.New("user with this identifier already exists")

// Public failure messages returned by the preview endpoint.
const (
	msgInvalidCode = "Invalid activation code"
	msgExpiredCode = "Activation code has expired"
	msgLockedCode  = "Activation code is locked due to too many attempts"
)

// RequestMeta carries the caller-side request context recorded in the audit
// trail.
type RequestMeta struct {
	IP        string
	UserAgent string
	DeviceID  string
}

// ActivationService orchestrates the redemption state machine: matching a
// submitted code, checking usability, verifying identity and provisioning
// the account.
type ActivationService interface {
	// Preview validates a code without creating an account. Every call that
	// matches a code consumes one lockout-budget slot, throttling brute
	// force by construction.
	Preview(ctx context.Context, payload dto.ValidateCodeRequest, ip string) (dto.ValidateCodeResponse, error)
	// Complete redeems a valid code: provisions the account, retires the
	// code and freezes the whitelist entry in one transaction, then returns
	// an access token for immediate login.
	Complete(ctx context.Context, payload dto.CompleteActivationRequest, meta RequestMeta) (dto.CompleteActivationResponse, error)
}

type activationService struct {
	vault     CodeService
	codes     repository.ActivationCodeRepository
	users     repository.UserRepository
	provision repository.ProvisionRepository
	audit     repository.AuditLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time

	jwtSecret string
	tokenTTL  time.Duration
}

// NewActivationService builds the activation workflow service.
func NewActivationService(
	vault CodeService,
	codes repository.ActivationCodeRepository,
	users repository.UserRepository,
	provision repository.ProvisionRepository,
	audit repository.AuditLogRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
	jwtSecret string,
	tokenTTL time.Duration,
) ActivationService {
	return &activationService{
		vault:     vault,
		codes:     codes,
		users:     users,
		provision: provision,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "activation_service").Logger(),
		now:       time.Now,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *activationService) Preview(ctx context.Context, payload dto.ValidateCodeRequest, ip string) (dto.ValidateCodeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		// Malformed input never reaches code matching and is not audited.
		return dto.ValidateCodeResponse{Valid: false, Error: msgInvalidCode}, nil
	}

	matched, refreshed, err := s.matchAndRecord(ctx, payload.Code, ip)
	if err != nil {
		return dto.ValidateCodeResponse{}, err
	}

	if matched == nil {
		s.appendAudit(ctx, models.ActivationAuditLog{
			EventType:     models.AuditValidationAttempt,
			IPAddress:     ip,
			Success:       false,
			FailureReason: models.FailureInvalidCode,
		})
		return dto.ValidateCodeResponse{Valid: false, Error: msgInvalidCode}, nil
	}

	now := s.now()
	expired := refreshed.IsExpired(now)
	locked := refreshed.IsLocked()

	audit := models.ActivationAuditLog{
		EventType:        models.AuditValidationAttempt,
		ActivationCodeID: &refreshed.ID,
		WhitelistID:      &refreshed.WhitelistID,
		IPAddress:        ip,
		Success:          !expired && !locked,
	}
	switch {
	case expired:
		audit.FailureReason = models.FailureExpired
	case locked:
		audit.FailureReason = models.FailureLocked
	}
	s.appendAudit(ctx, audit)

	// Expiry before lock: an expired code reports expired even when it is
	// also locked out.
	if expired {
		return dto.ValidateCodeResponse{Valid: false, Error: msgExpiredCode}, nil
	}
	if locked {
		return dto.ValidateCodeResponse{Valid: false, Error: msgLockedCode}, nil
	}

	whitelist := matched.WhitelistEntry
	preview := &dto.ValidatePreview{
		FullName:       whitelist.FullName,
		AssignedRole:   string(whitelist.AssignedRole),
		IdentifierType: string(whitelist.IdentifierType),
	}
	if whitelist.AssignedSupervisor != nil {
		preview.SupervisorName = whitelist.AssignedSupervisor.FullName
	}

	remaining := refreshed.ExpiresAt.Sub(now).Hours()
	requirements := dto.DefaultActivationRequirements()
	expiresAt := refreshed.ExpiresAt

	return dto.ValidateCodeResponse{
		Valid:          true,
		WhitelistEntry: preview,
		ExpiresAt:      &expiresAt,
		RemainingHours: math.Round(remaining*10) / 10,
		Requirements:   &requirements,
	}, nil
}

func (s *activationService) Complete(ctx context.Context, payload dto.CompleteActivationRequest, meta RequestMeta) (dto.CompleteActivationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CompleteActivationResponse{}, err
	}

	matched, refreshed, err := s.matchAndRecord(ctx, payload.Code, meta.IP)
	if err != nil {
		return dto.CompleteActivationResponse{}, err
	}

	if matched == nil || refreshed.IsExpired(s.now()) || refreshed.IsLocked() {
		audit := models.ActivationAuditLog{
			EventType:           models.AuditActivationFailed,
			IdentifierAttempted: payload.Identifier,
			IPAddress:           meta.IP,
			UserAgent:           meta.UserAgent,
			DeviceID:            meta.DeviceID,
			Success:             false,
			FailureReason:       models.FailureInvalidOrExpiredCode,
		}
		if matched != nil {
			audit.ActivationCodeID = &matched.ID
			audit.WhitelistID = &matched.WhitelistID
		}
		s.appendAudit(ctx, audit)
		return dto.CompleteActivationResponse{}, ErrInvalidOrExpiredCode
	}

	whitelist := matched.WhitelistEntry

	if !strings.EqualFold(whitelist.Identifier, payload.Identifier) {
		s.appendAudit(ctx, models.ActivationAuditLog{
			EventType:           models.AuditActivationFailed,
			ActivationCodeID:    &matched.ID,
			WhitelistID:         &whitelist.ID,
			IdentifierAttempted: payload.Identifier,
			IPAddress:           meta.IP,
			UserAgent:           meta.UserAgent,
			DeviceID:            meta.DeviceID,
			Success:             false,
			FailureReason:       models.FailureIdentifierMismatch,
		})
		return dto.CompleteActivationResponse{}, ErrIdentifierMismatch
	}

	identifier := strings.ToLower(payload.Identifier)

	exists, err := s.users.ExistsByEmail(ctx, identifier)
	if err != nil {
		return dto.CompleteActivationResponse{}, err
	}
	if exists {
		s.appendAudit(ctx, models.ActivationAuditLog{
			EventType:           models.AuditActivationFailed,
			ActivationCodeID:    &matched.ID,
			WhitelistID:         &whitelist.ID,
			IdentifierAttempted: payload.Identifier,
			IPAddress:           meta.IP,
			UserAgent:           meta.UserAgent,
			DeviceID:            meta.DeviceID,
			Success:             false,
			FailureReason:       models.FailureAccountExists,
		})
		return dto.CompleteActivationResponse{}, ErrAccountExists
	}

	hashedPassword, err := utils.HashSecret(payload.Password)
	if err != nil {
		return dto.CompleteActivationResponse{}, err
	}

	phone := payload.Phone
	if phone == "" {
		phone = whitelist.Phone
	}

	now := s.now()
	user, err := s.provision.Provision(ctx, repository.ProvisionParams{
		CodeID:      matched.ID,
		WhitelistID: whitelist.ID,
		Now:         now,
		User: models.User{
			Email:          identifier,
			HashedPassword: hashedPassword,
			FullName:       whitelist.FullName,
			Phone:          phone,
			// Role comes from the whitelist entry, never from caller input.
			Role:     whitelist.AssignedRole,
			IsActive: true,
		},
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the double-redemption race; everything rolled back.
			s.appendAudit(ctx, models.ActivationAuditLog{
				EventType:           models.AuditActivationFailed,
				ActivationCodeID:    &matched.ID,
				WhitelistID:         &whitelist.ID,
				IdentifierAttempted: payload.Identifier,
				IPAddress:           meta.IP,
				UserAgent:           meta.UserAgent,
				DeviceID:            meta.DeviceID,
				Success:             false,
				FailureReason:       models.FailureInvalidOrExpiredCode,
			})
			return dto.CompleteActivationResponse{}, ErrInvalidOrExpiredCode
		}
		return dto.CompleteActivationResponse{}, err
	}

	s.appendAudit(ctx, models.ActivationAuditLog{
		EventType:           models.AuditActivationSuccess,
		ActivationCodeID:    &matched.ID,
		WhitelistID:         &whitelist.ID,
		IdentifierAttempted: payload.Identifier,
		IPAddress:           meta.IP,
		UserAgent:           meta.UserAgent,
		DeviceID:            meta.DeviceID,
		Success:             true,
		CreatedUserID:       &user.ID,
	})

	s.logger.Info().
		Uint("user_id", user.ID).
		Uint("whitelist_id", whitelist.ID).
		Str("role", string(user.Role)).
		Msg("account activated")

	token, err := utils.IssueAccessToken(s.jwtSecret, user, s.tokenTTL)
	if err != nil {
		return dto.CompleteActivationResponse{}, err
	}

	return dto.CompleteActivationResponse{
		Success:     true,
		UserID:      user.ID,
		AccessToken: token,
		UserInfo: dto.ActivatedUserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     string(user.Role),
			Phone:    user.Phone,
		},
	}, nil
}

// matchAndRecord is the single attempt primitive shared by both paths: it
// runs the linear hash scan and, on a match, consumes one lockout-budget slot
// and stamps the attempt metadata before any usability check. The first
// return value keeps the scan's preloaded whitelist data; the second carries
// the post-increment counters.
func (s *activationService) matchAndRecord(ctx context.Context, plainCode, ip string) (*models.ActivationCode, models.ActivationCode, error) {
	matched, err := s.vault.FindByPlainCode(ctx, plainCode)
	if err != nil {
		return nil, models.ActivationCode{}, err
	}
	if matched == nil {
		return nil, models.ActivationCode{}, nil
	}

	refreshed, err := s.codes.RecordAttempt(ctx, matched.ID, ip, s.now())
	if err != nil {
		return nil, models.ActivationCode{}, err
	}

	return matched, refreshed, nil
}

func (s *activationService) appendAudit(ctx context.Context, entry models.ActivationAuditLog) {
	if err := s.audit.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Str("event_type", entry.EventType).Msg("failed to append audit entry")
	}
}
