package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/service"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

// AdminCodeHandler wires the admin-facing activation code routes.
type AdminCodeHandler struct {
	service service.CodeService
	logger  zerolog.Logger
}

// NewAdminCodeHandler constructs the handler.
func NewAdminCodeHandler(service service.CodeService, logger zerolog.Logger) *AdminCodeHandler {
	return &AdminCodeHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_code_handler").Logger(),
	}
}

// Register attaches activation code endpoints to the router group.
func (h *AdminCodeHandler) Register(router fiber.Router) {
	router.Post("", h.generate)
	router.Get("", h.list)
	router.Post("/:id/revoke", h.revoke)
}

func (h *AdminCodeHandler) generate(c *fiber.Ctx) error {
	var payload dto.GenerateCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Issue(c.Context(), payload, userIDFromContext(c), c.IP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWhitelistNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "whitelist entry not found")
		case errors.Is(err, service.ErrWhitelistActivated):
			return utils.SendError(c, fiber.StatusConflict, "whitelist entry already activated")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activation code generated", result)
}

func (h *AdminCodeHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	whitelistID, err := parseQueryUintPtr(c, "whitelist_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid whitelist_id")
	}

	payload := dto.CodeListRequest{
		Page:        page,
		Limit:       limit,
		Status:      c.Query("status"),
		WhitelistID: whitelistID,
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}

	result, err := h.service.List(c.Context(), payload)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "activation codes retrieved", result)
}

func (h *AdminCodeHandler) revoke(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RevokeCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Revoke(c.Context(), id, payload, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "activation code not found")
		case errors.Is(err, service.ErrCodeUsed):
			return utils.SendError(c, fiber.StatusConflict, "cannot revoke a code that has already been used")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "activation code revoked", result)
}

func (h *AdminCodeHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
