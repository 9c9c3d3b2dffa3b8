package dto

import (
	"time"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// GenerateCodeRequest captures the admin payload for issuing a code.
type GenerateCodeRequest struct {
	WhitelistID    uint   `json:"whitelist_id" validate:"required"`
	ExpiresInHours int    `json:"expires_in_hours" validate:"omitempty,min=1"`
	SendEmail      *bool  `json:"send_email"`
	CustomMessage  string `json:"custom_message" validate:"omitempty,max=1000"`
}

// WhitelistEntryInfo is the projection of a whitelist entry returned with
// code operations.
type WhitelistEntryInfo struct {
	ID           uint   `json:"id"`
	Identifier   string `json:"identifier"`
	FullName     string `json:"full_name"`
	AssignedRole string `json:"assigned_role"`
}

// GenerateCodeResponse returns the plain code exactly once, at issuance. The
// value is never persisted or retrievable again.
type GenerateCodeResponse struct {
	Code           string             `json:"code"`
	CodeID         uint               `json:"code_id"`
	WhitelistEntry WhitelistEntryInfo `json:"whitelist_entry"`
	ExpiresAt      time.Time          `json:"expires_at"`
	ExpiresInHours int                `json:"expires_in_hours"`
	EmailSent      bool               `json:"email_sent"`
	EmailStatus    string             `json:"email_status,omitempty"`
}

// CodeListRequest defines filters for listing activation codes.
type CodeListRequest struct {
	Page        int
	Limit       int
	Status      string
	WhitelistID *uint
	SortBy      string
	SortOrder   string
}

// CodeResponse serializes an activation code for admin listings. The hash is
// never exposed.
type CodeResponse struct {
	ID                 uint               `json:"id"`
	WhitelistID        uint               `json:"whitelist_id"`
	WhitelistEntry     WhitelistEntryInfo `json:"whitelist_entry"`
	Status             string             `json:"status"`
	ExpiresAt          time.Time          `json:"expires_at"`
	IsUsed             bool               `json:"is_used"`
	UsedAt             *time.Time         `json:"used_at,omitempty"`
	UsedByUserName     string             `json:"used_by_user_name,omitempty"`
	ActivationAttempts int                `json:"activation_attempts"`
	LastAttemptAt      *time.Time         `json:"last_attempt_at,omitempty"`
	GeneratedAt        time.Time          `json:"generated_at"`
	GeneratedByName    string             `json:"generated_by_name,omitempty"`
}

// CodeListResponse wraps a paginated code listing.
type CodeListResponse struct {
	Items      []CodeResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
	Filters    map[string]any `json:"filters_applied"`
}

// RevokeCodeRequest captures the admin payload for revoking a code.
type RevokeCodeRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RevokeCodeResponse confirms a revocation.
type RevokeCodeResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	CodeID    uint      `json:"code_id"`
	RevokedAt time.Time `json:"revoked_at"`
}

// ValidateCodeRequest is the public preview payload.
type ValidateCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// ActivationRequirements lists what the caller must supply to complete
// activation.
type ActivationRequirements struct {
	MustProvideIdentifier    bool `json:"must_provide_identifier"`
	MustCreateStrongPassword bool `json:"must_create_strong_password"`
	PasswordMinLength        int  `json:"password_min_length"`
	MustAgreeToTerms         bool `json:"must_agree_to_terms"`
}

// DefaultActivationRequirements returns the fixed activation requirements.
func DefaultActivationRequirements() ActivationRequirements {
	return ActivationRequirements{
		MustProvideIdentifier:    true,
		MustCreateStrongPassword: true,
		PasswordMinLength:        8,
		MustAgreeToTerms:         true,
	}
}

// ValidatePreview is the whitelist projection exposed by a successful preview.
type ValidatePreview struct {
	FullName       string `json:"full_name"`
	AssignedRole   string `json:"assigned_role"`
	IdentifierType string `json:"identifier_type"`
	SupervisorName string `json:"supervisor_name,omitempty"`
}

// ValidateCodeResponse is the public preview result. Failures carry only a
// generic error to prevent code enumeration.
type ValidateCodeResponse struct {
	Valid          bool                    `json:"valid"`
	Error          string                  `json:"error,omitempty"`
	WhitelistEntry *ValidatePreview        `json:"whitelist_entry,omitempty"`
	ExpiresAt      *time.Time              `json:"expires_at,omitempty"`
	RemainingHours float64                 `json:"remaining_hours,omitempty"`
	Requirements   *ActivationRequirements `json:"activation_requirements,omitempty"`
}

// CompleteActivationRequest is the public redemption payload.
type CompleteActivationRequest struct {
	Code       string `json:"code" validate:"required,len=6,numeric"`
	Identifier string `json:"identifier" validate:"required,min=3,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
}

// ActivatedUserInfo is the public profile of a freshly provisioned account.
type ActivatedUserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
}

// CompleteActivationResponse returns the provisioning outcome with an access
// token for immediate login.
type CompleteActivationResponse struct {
	Success     bool              `json:"success"`
	UserID      uint              `json:"user_id"`
	AccessToken string            `json:"access_token"`
	UserInfo    ActivatedUserInfo `json:"user_info"`
}

// NewCodeResponse converts an activation code model into a DTO.
func NewCodeResponse(code models.ActivationCode, now time.Time) CodeResponse {
	resp := CodeResponse{
		ID:                 code.ID,
		WhitelistID:        code.WhitelistID,
		Status:             string(code.Status(now)),
		ExpiresAt:          code.ExpiresAt,
		IsUsed:             code.IsUsed,
		UsedAt:             code.UsedAt,
		ActivationAttempts: code.ActivationAttempts,
		LastAttemptAt:      code.LastAttemptAt,
		GeneratedAt:        code.GeneratedAt,
	}

	if code.WhitelistEntry != nil {
		resp.WhitelistEntry = WhitelistEntryInfo{
			ID:           code.WhitelistEntry.ID,
			Identifier:   code.WhitelistEntry.Identifier,
			FullName:     code.WhitelistEntry.FullName,
			AssignedRole: string(code.WhitelistEntry.AssignedRole),
		}
	}

	if code.UsedByUser != nil {
		resp.UsedByUserName = code.UsedByUser.FullName
	}

	if code.Generator != nil {
		resp.GeneratedByName = code.Generator.FullName
	}

	return resp
}
