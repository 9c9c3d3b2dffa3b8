package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/brigada-mx/brigada-api/internal/dto"
	"github.com/brigada-mx/brigada-api/internal/service"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

// WhitelistHandler wires the admin whitelist routes.
type WhitelistHandler struct {
	service service.WhitelistService
	logger  zerolog.Logger
}

// NewWhitelistHandler constructs the handler.
func NewWhitelistHandler(service service.WhitelistService, logger zerolog.Logger) *WhitelistHandler {
	return &WhitelistHandler{
		service: service,
		logger:  logger.With().Str("component", "whitelist_handler").Logger(),
	}
}

// Register attaches whitelist endpoints to the router group.
func (h *WhitelistHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *WhitelistHandler) create(c *fiber.Ctx) error {
	var payload dto.WhitelistCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.service.Create(c.Context(), payload, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "whitelist entry created", entry)
}

func (h *WhitelistHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entry, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "whitelist entry retrieved", entry)
}

func (h *WhitelistHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	supervisorID, err := parseQueryUintPtr(c, "supervisor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid supervisor_id")
	}

	payload := dto.WhitelistListRequest{
		Page:         page,
		Limit:        limit,
		Status:       c.Query("status"),
		Role:         c.Query("role"),
		Search:       c.Query("search"),
		SupervisorID: supervisorID,
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
	}

	result, err := h.service.List(c.Context(), payload)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "whitelist entries retrieved", result)
}

func (h *WhitelistHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.WhitelistUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "whitelist entry updated", entry)
}

func (h *WhitelistHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "whitelist entry deleted", fiber.Map{"id": id})
}

func (h *WhitelistHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrWhitelistNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "whitelist entry not found")
	case errors.Is(err, service.ErrSupervisorNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "supervisor not found")
	case errors.Is(err, service.ErrIdentifierTaken):
		return utils.SendError(c, fiber.StatusConflict, "identifier already in whitelist")
	case errors.Is(err, service.ErrWhitelistActivated):
		return utils.SendError(c, fiber.StatusConflict, "whitelist entry already activated")
	case errors.Is(err, service.ErrSupervisorRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "supervisor is required for brigadista role")
	case errors.Is(err, service.ErrSupervisorRole):
		return utils.SendError(c, fiber.StatusBadRequest, "supervisor must have admin or encargado role")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *WhitelistHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
