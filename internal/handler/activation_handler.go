package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/observability"
	"github.com/brigada-mx/brigada-api/internal/service"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

// ActivationHandler wires the public, unauthenticated activation routes.
type ActivationHandler struct {
	service service.ActivationService
	logger  zerolog.Logger
}

// NewActivationHandler constructs the handler.
func NewActivationHandler(service service.ActivationService, logger zerolog.Logger) *ActivationHandler {
	return &ActivationHandler{
		service: service,
		logger:  logger.With().Str("component", "activation_handler").Logger(),
	}
}

// Register attaches the public activation endpoints to the router group.
func (h *ActivationHandler) Register(router fiber.Router) {
	router.Post("/validate", h.validate)
	router.Post("/complete", h.complete)
}

func (h *ActivationHandler) validate(c *fiber.Ctx) error {
	var payload dto.ValidateCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Preview(c.Context(), payload, c.IP())
	if err != nil {
		return h.internalError(c, err)
	}

	outcome := "invalid"
	if result.Valid {
		outcome = "valid"
	}
	observability.CodeValidations().WithLabelValues(outcome).Inc()

	// Failures are part of the normal response shape here; the generic
	// message is the whole point of the anti-enumeration policy.
	return utils.SendSuccess(c, "validation processed", result)
}

func (h *ActivationHandler) complete(c *fiber.Ctx) error {
	var payload dto.CompleteActivationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	meta := service.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		DeviceID:  c.Get("X-Device-ID"),
	}

	result, err := h.service.Complete(c.Context(), payload, meta)
	if err != nil {
		observability.Activations().WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredCode):
			return utils.SendError(c, fiber.StatusBadRequest, "Invalid or expired activation code")
		case errors.Is(err, service.ErrIdentifierMismatch):
			return utils.SendError(c, fiber.StatusBadRequest, "Identifier does not match whitelist entry")
		case errors.Is(err, service.ErrAccountExists):
			return utils.SendError(c, fiber.StatusConflict, "User with this identifier already exists")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	observability.Activations().WithLabelValues("success").Inc()

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account activated", result)
}

func (h *ActivationHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
