package models

import "time"

// Role enumerates the closed set of account roles. The same type backs both
// user accounts and whitelist pre-assignments so the two can never drift.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleEncargado  Role = "encargado"
	RoleBrigadista Role = "brigadista"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEncargado, RoleBrigadista:
		return true
	}
	return false
}

// CanSupervise reports whether accounts with this role may be assigned as
// supervisors of brigadistas.
func (r Role) CanSupervise() bool {
	return r == RoleAdmin || r == RoleEncargado
}

// User represents a live account provisioned through the activation flow or
// seeded directly by an administrator.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	HashedPassword string     `gorm:"size:255;not null" json:"-"`
	FullName       string     `gorm:"size:255;not null" json:"full_name"`
	Phone          string     `gorm:"size:20" json:"phone,omitempty"`
	Role           Role       `gorm:"size:20;not null;default:brigadista" json:"role"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}
