package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/repository"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

// ErrInvalidCredentials indicates the email/password pair did not match an
// active account. Disabled accounts fail the same way on purpose.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// AuthService authenticates existing accounts.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthService builds the authentication service.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if !user.IsActive || !utils.VerifySecret(payload.Password, user.HashedPassword) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := utils.IssueAccessToken(s.jwtSecret, user, s.tokenTTL)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record login timestamp")
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
		Role:        string(user.Role),
	}, nil
}
