package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/models"
	"github.com/brigada-mx/brigada-api/internal/repository"
)

// ErrWhitelistNotFound indicates the requested whitelist entry does not exist.
var ErrWhitelistNotFound = errors.New("whitelist entry not found")

// ErrIdentifierTaken indicates the identifier is already whitelisted.
var ErrIdentifierTaken = errors.New("identifier already in whitelist")

// ErrWhitelistActivated indicates the entry is frozen because it has been
// activated.
var ErrWhitelistActivated = errors.New("whitelist entry already activated")

// ErrSupervisorRequired indicates a brigadista entry is missing its supervisor.
var ErrSupervisorRequired = errors.New("supervisor is required for brigadista role")

// ErrSupervisorNotFound indicates the referenced supervisor does not exist.
var ErrSupervisorNotFound = errors.New("supervisor not found")

// ErrSupervisorRole indicates the referenced supervisor cannot supervise.
var ErrSupervisorRole = errors.New("supervisor must have admin or encargado role")

// WhitelistService exposes pre-authorization use cases.
type WhitelistService interface {
	Create(ctx context.Context, payload dto.WhitelistCreateRequest, createdBy uint) (dto.WhitelistResponse, error)
	Get(ctx context.Context, id uint) (dto.WhitelistResponse, error)
	List(ctx context.Context, payload dto.WhitelistListRequest) (dto.WhitelistListResponse, error)
	Update(ctx context.Context, id uint, payload dto.WhitelistUpdateRequest) (dto.WhitelistResponse, error)
	Delete(ctx context.Context, id uint) error
}

type whitelistService struct {
	repo      repository.WhitelistRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewWhitelistService builds a whitelist service.
func NewWhitelistService(repo repository.WhitelistRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) WhitelistService {
	return &whitelistService{
		repo:      repo,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "whitelist_service").Logger(),
		now:       time.Now,
	}
}

func (s *whitelistService) Create(ctx context.Context, payload dto.WhitelistCreateRequest, createdBy uint) (dto.WhitelistResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.WhitelistResponse{}, err
	}

	if _, err := s.repo.GetByIdentifier(ctx, payload.Identifier); err == nil {
		return dto.WhitelistResponse{}, ErrIdentifierTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.WhitelistResponse{}, err
	}

	role := models.Role(payload.AssignedRole)
	if err := s.checkSupervisor(ctx, role, payload.AssignedSupervisorID); err != nil {
		return dto.WhitelistResponse{}, err
	}

	entry := models.WhitelistEntry{
		Identifier:           payload.Identifier,
		IdentifierType:       models.IdentifierType(payload.IdentifierType),
		FullName:             payload.FullName,
		Phone:                payload.Phone,
		AssignedRole:         role,
		AssignedSupervisorID: payload.AssignedSupervisorID,
		Notes:                payload.Notes,
		CreatedBy:            createdBy,
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		// Two concurrent creates can both pass the identifier pre-check; the
		// unique index decides and the loser surfaces as a conflict.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.WhitelistResponse{}, ErrIdentifierTaken
		}
		return dto.WhitelistResponse{}, err
	}

	s.logger.Info().
		Uint("whitelist_id", entry.ID).
		Str("role", payload.AssignedRole).
		Msg("whitelist entry created")

	created, err := s.repo.GetByID(ctx, entry.ID)
	if err != nil {
		return dto.WhitelistResponse{}, err
	}

	return dto.NewWhitelistResponse(created, s.now()), nil
}

func (s *whitelistService) Get(ctx context.Context, id uint) (dto.WhitelistResponse, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WhitelistResponse{}, ErrWhitelistNotFound
		}
		return dto.WhitelistResponse{}, err
	}

	return dto.NewWhitelistResponse(entry, s.now()), nil
}

func (s *whitelistService) List(ctx context.Context, payload dto.WhitelistListRequest) (dto.WhitelistListResponse, error) {
	page, limit := dto.NormalizePageLimit(payload.Page, payload.Limit)
	filter := repository.WhitelistFilter{
		Page:         page,
		Limit:        limit,
		Status:       payload.Status,
		Role:         payload.Role,
		Search:       payload.Search,
		SupervisorID: payload.SupervisorID,
		SortBy:       payload.SortBy,
		SortOrder:    payload.SortOrder,
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.WhitelistListResponse{}, err
	}

	now := s.now()
	items := make([]dto.WhitelistResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewWhitelistResponse(entry, now))
	}

	status := payload.Status
	if status == "" {
		status = "all"
	}

	return dto.WhitelistListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, limit, total),
		Filters: map[string]any{
			"status":        status,
			"role":          payload.Role,
			"search":        payload.Search,
			"supervisor_id": payload.SupervisorID,
			"sort_by":       payload.SortBy,
			"sort_order":    payload.SortOrder,
		},
	}, nil
}

func (s *whitelistService) Update(ctx context.Context, id uint, payload dto.WhitelistUpdateRequest) (dto.WhitelistResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.WhitelistResponse{}, err
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WhitelistResponse{}, ErrWhitelistNotFound
		}
		return dto.WhitelistResponse{}, err
	}

	if entry.IsActivated {
		return dto.WhitelistResponse{}, ErrWhitelistActivated
	}

	if payload.FullName != nil {
		entry.FullName = *payload.FullName
	}
	if payload.Phone != nil {
		entry.Phone = *payload.Phone
	}
	if payload.AssignedRole != nil {
		entry.AssignedRole = models.Role(*payload.AssignedRole)
	}
	if payload.AssignedSupervisorID != nil {
		entry.AssignedSupervisorID = payload.AssignedSupervisorID
	}
	if payload.Notes != nil {
		entry.Notes = *payload.Notes
	}

	if err := s.checkSupervisor(ctx, entry.AssignedRole, entry.AssignedSupervisorID); err != nil {
		return dto.WhitelistResponse{}, err
	}

	// Associations stay out of the save; only column values change here.
	entry.AssignedSupervisor = nil
	entry.ActivatedUser = nil
	entry.Creator = nil
	entry.ActivationCodes = nil

	if err := s.repo.Update(ctx, &entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WhitelistResponse{}, s.frozenOrGone(ctx, id)
		}
		return dto.WhitelistResponse{}, err
	}

	s.logger.Info().Uint("whitelist_id", id).Msg("whitelist entry updated")

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.WhitelistResponse{}, err
	}

	return dto.NewWhitelistResponse(updated, s.now()), nil
}

func (s *whitelistService) Delete(ctx context.Context, id uint) error {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWhitelistNotFound
		}
		return err
	}

	if entry.IsActivated {
		return ErrWhitelistActivated
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.frozenOrGone(ctx, id)
		}
		return err
	}

	s.logger.Info().Uint("whitelist_id", id).Msg("whitelist entry deleted")
	return nil
}

// frozenOrGone resolves a zero-rows-affected write: the entry was either
// activated after the caller's read, which freezes it, or removed entirely.
func (s *whitelistService) frozenOrGone(ctx context.Context, id uint) error {
	current, err := s.repo.GetByID(ctx, id)
	if err == nil && current.IsActivated {
		return ErrWhitelistActivated
	}
	return ErrWhitelistNotFound
}

// checkSupervisor enforces the brigadista supervision rule: the role requires
// a supervisor, and any referenced supervisor must exist with a supervising
// role.
func (s *whitelistService) checkSupervisor(ctx context.Context, role models.Role, supervisorID *uint) error {
	if role == models.RoleBrigadista && supervisorID == nil {
		return ErrSupervisorRequired
	}

	if supervisorID == nil {
		return nil
	}

	supervisor, err := s.users.GetByID(ctx, *supervisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSupervisorNotFound
		}
		return err
	}

	if !supervisor.Role.CanSupervise() {
		return ErrSupervisorRole
	}

	return nil
}
