package models

import "time"

// IdentifierType enumerates the kinds of identity a whitelist entry can be
// keyed on.
type IdentifierType string

const (
	IdentifierEmail      IdentifierType = "email"
	IdentifierPhone      IdentifierType = "phone"
	IdentifierNationalID IdentifierType = "national_id"
)

// Valid reports whether the identifier type is one of the known values.
func (t IdentifierType) Valid() bool {
	switch t {
	case IdentifierEmail, IdentifierPhone, IdentifierNationalID:
		return true
	}
	return false
}

// WhitelistEntry is a pre-authorization record permitting one identity to
// activate one account of a pre-assigned role. Entries are mutable only while
// not activated; activation freezes them permanently.
type WhitelistEntry struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Identifier     string         `gorm:"size:255;uniqueIndex;not null" json:"identifier"`
	IdentifierType IdentifierType `gorm:"size:20;not null" json:"identifier_type"`

	FullName             string `gorm:"size:255;not null" json:"full_name"`
	Phone                string `gorm:"size:20" json:"phone,omitempty"`
	AssignedRole         Role   `gorm:"size:20;not null" json:"assigned_role"`
	AssignedSupervisorID *uint  `gorm:"index" json:"assigned_supervisor_id,omitempty"`

	// Activated fields are all-present or all-absent, set together in the
	// completion transaction and never unset.
	IsActivated     bool       `gorm:"not null;default:false;index" json:"is_activated"`
	ActivatedUserID *uint      `gorm:"index" json:"activated_user_id,omitempty"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`

	CreatedBy uint      `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`

	AssignedSupervisor *User            `gorm:"foreignKey:AssignedSupervisorID;constraint:OnDelete:SET NULL" json:"assigned_supervisor,omitempty"`
	ActivatedUser      *User            `gorm:"foreignKey:ActivatedUserID;constraint:OnDelete:SET NULL" json:"activated_user,omitempty"`
	Creator            *User            `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	ActivationCodes    []ActivationCode `gorm:"foreignKey:WhitelistID;constraint:OnDelete:CASCADE" json:"activation_codes,omitempty"`
}
