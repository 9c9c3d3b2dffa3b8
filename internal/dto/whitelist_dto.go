package dto

import (
	"time"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// WhitelistCreateRequest captures the payload for pre-authorizing an identity.
type WhitelistCreateRequest struct {
	Identifier           string `json:"identifier" validate:"required,min=3,max=255"`
	IdentifierType       string `json:"identifier_type" validate:"required,oneof=email phone national_id"`
	FullName             string `json:"full_name" validate:"required,min=2,max=255"`
	Phone                string `json:"phone" validate:"omitempty,max=20"`
	AssignedRole         string `json:"assigned_role" validate:"required,oneof=admin encargado brigadista"`
	AssignedSupervisorID *uint  `json:"assigned_supervisor_id"`
	Notes                string `json:"notes" validate:"omitempty,max=2000"`
}

// WhitelistUpdateRequest captures partial updates to a pending entry.
type WhitelistUpdateRequest struct {
	FullName             *string `json:"full_name" validate:"omitempty,min=2,max=255"`
	Phone                *string `json:"phone" validate:"omitempty,max=20"`
	AssignedRole         *string `json:"assigned_role" validate:"omitempty,oneof=admin encargado brigadista"`
	AssignedSupervisorID *uint   `json:"assigned_supervisor_id"`
	Notes                *string `json:"notes" validate:"omitempty,max=2000"`
}

// WhitelistListRequest defines filters for listing whitelist entries.
type WhitelistListRequest struct {
	Page         int
	Limit        int
	Status       string
	Role         string
	Search       string
	SupervisorID *uint
	SortBy       string
	SortOrder    string
}

// SupervisorInfo is the minimal projection of an assigned supervisor.
type SupervisorInfo struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// WhitelistResponse serializes a whitelist entry for admin endpoints.
type WhitelistResponse struct {
	ID                 uint            `json:"id"`
	Identifier         string          `json:"identifier"`
	IdentifierType     string          `json:"identifier_type"`
	FullName           string          `json:"full_name"`
	Phone              string          `json:"phone,omitempty"`
	AssignedRole       string          `json:"assigned_role"`
	AssignedSupervisor *SupervisorInfo `json:"assigned_supervisor,omitempty"`
	IsActivated        bool            `json:"is_activated"`
	HasActiveCode      bool            `json:"has_active_code"`
	CodeExpiresAt      *time.Time      `json:"code_expires_at,omitempty"`
	ActivatedAt        *time.Time      `json:"activated_at,omitempty"`
	ActivatedUserName  string          `json:"activated_user_name,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	CreatedByName      string          `json:"created_by_name,omitempty"`
	Notes              string          `json:"notes,omitempty"`
}

// WhitelistListResponse wraps a paginated whitelist listing.
type WhitelistListResponse struct {
	Items      []WhitelistResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
	Filters    map[string]any      `json:"filters_applied"`
}

// NewWhitelistResponse converts a whitelist entry into a DTO. The active-code
// summary follows status precedence: a code counts as active only when it is
// unused, unexpired and unlocked.
func NewWhitelistResponse(entry models.WhitelistEntry, now time.Time) WhitelistResponse {
	resp := WhitelistResponse{
		ID:             entry.ID,
		Identifier:     entry.Identifier,
		IdentifierType: string(entry.IdentifierType),
		FullName:       entry.FullName,
		Phone:          entry.Phone,
		AssignedRole:   string(entry.AssignedRole),
		IsActivated:    entry.IsActivated,
		ActivatedAt:    entry.ActivatedAt,
		CreatedAt:      entry.CreatedAt,
		Notes:          entry.Notes,
	}

	if entry.AssignedSupervisor != nil {
		resp.AssignedSupervisor = &SupervisorInfo{
			ID:   entry.AssignedSupervisor.ID,
			Name: entry.AssignedSupervisor.FullName,
		}
	}

	if entry.ActivatedUser != nil {
		resp.ActivatedUserName = entry.ActivatedUser.FullName
	}

	if entry.Creator != nil {
		resp.CreatedByName = entry.Creator.FullName
	}

	for _, code := range entry.ActivationCodes {
		if code.Status(now) == models.CodeStatusActive {
			resp.HasActiveCode = true
			expires := code.ExpiresAt
			resp.CodeExpiresAt = &expires
			break
		}
	}

	return resp
}
