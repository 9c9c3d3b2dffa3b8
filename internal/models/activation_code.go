package models

import "time"

// Attempt thresholds for activation codes. A revoked code has its attempt
// counter forced to RevokedAttempts, which satisfies the locked predicate
// permanently.
const (
	MaxActivationAttempts = 5
	RevokedAttempts       = 999
)

// CodeStatus is the derived lifecycle status of an activation code.
type CodeStatus string

const (
	CodeStatusActive  CodeStatus = "active"
	CodeStatusUsed    CodeStatus = "used"
	CodeStatusExpired CodeStatus = "expired"
	CodeStatusLocked  CodeStatus = "locked"
)

// ActivationCode stores the bcrypt hash of a one-time 6-digit code bound to a
// whitelist entry. The plain code is never persisted; equality can only be
// re-established by hash comparison. Codes are never deleted once issued.
type ActivationCode struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CodeHash    string    `gorm:"size:255;not null" json:"-"`
	WhitelistID uint      `gorm:"not null;index" json:"whitelist_id"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`

	// Set exactly once, together, inside the completion transaction.
	IsUsed       bool       `gorm:"not null;default:false;index" json:"is_used"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	UsedByUserID *uint      `json:"used_by_user_id,omitempty"`

	ActivationAttempts int        `gorm:"not null;default:0" json:"activation_attempts"`
	LastAttemptAt      *time.Time `json:"last_attempt_at,omitempty"`
	LastAttemptIP      string     `gorm:"size:45" json:"last_attempt_ip,omitempty"`

	GeneratedBy uint      `gorm:"not null;index" json:"generated_by"`
	GeneratedAt time.Time `gorm:"autoCreateTime" json:"generated_at"`

	WhitelistEntry *WhitelistEntry `gorm:"foreignKey:WhitelistID" json:"whitelist_entry,omitempty"`
	UsedByUser     *User           `gorm:"foreignKey:UsedByUserID;constraint:OnDelete:SET NULL" json:"used_by_user,omitempty"`
	Generator      *User           `gorm:"foreignKey:GeneratedBy" json:"generator,omitempty"`
}

// IsExpired reports whether the code's deadline has passed at the given time.
func (c ActivationCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsLocked reports whether the attempt counter has reached the lockout
// threshold. Revoked codes are always locked.
func (c ActivationCode) IsLocked() bool {
	return c.ActivationAttempts >= MaxActivationAttempts
}

// Status derives the effective lifecycle status with precedence
// used > locked > expired > active.
func (c ActivationCode) Status(now time.Time) CodeStatus {
	switch {
	case c.IsUsed:
		return CodeStatusUsed
	case c.IsLocked():
		return CodeStatusLocked
	case c.IsExpired(now):
		return CodeStatusExpired
	default:
		return CodeStatusActive
	}
}
