package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit event types for the activation code lifecycle.
const (
	AuditCodeGenerated     = "code_generated"
	AuditValidationAttempt = "code_validation_attempt"
	AuditActivationSuccess = "activation_success"
	AuditActivationFailed  = "activation_failed"
	AuditCodeRevoked       = "code_revoked"
)

// Machine-readable failure reasons recorded on audit entries.
const (
	FailureInvalidCode          = "invalid_code"
	FailureExpired              = "expired"
	FailureLocked               = "locked"
	FailureInvalidOrExpiredCode = "invalid_or_expired_code"
	FailureIdentifierMismatch   = "identifier_mismatch"
	FailureAccountExists        = "account_exists"
)

// ActivationAuditLog is an append-only record of activation code lifecycle
// events. Entries are never updated or deleted and must survive deletion of
// the code or whitelist entry they reference, so every link is a nullable
// weak reference.
type ActivationAuditLog struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	EventType        string `gorm:"size:64;not null;index" json:"event_type"`
	ActivationCodeID *uint  `gorm:"index" json:"activation_code_id,omitempty"`
	WhitelistID      *uint  `gorm:"index" json:"whitelist_id,omitempty"`

	IdentifierAttempted string `gorm:"size:255" json:"identifier_attempted,omitempty"`
	IPAddress           string `gorm:"size:45;not null" json:"ip_address"`
	UserAgent           string `gorm:"size:512" json:"user_agent,omitempty"`
	DeviceID            string `gorm:"size:255" json:"device_id,omitempty"`

	Success       bool              `gorm:"not null" json:"success"`
	FailureReason string            `gorm:"size:64" json:"failure_reason,omitempty"`
	CreatedUserID *uint             `json:"created_user_id,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
