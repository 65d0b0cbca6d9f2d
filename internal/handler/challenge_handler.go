package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/dto"
	"github.com/noah-isme/promptarena-go-api/internal/service"
	"github.com/noah-isme/promptarena-go-api/internal/utils"
)

// ChallengeHandler exposes the challenge catalog endpoints.
type ChallengeHandler struct {
	service service.ChallengeService
	logger  zerolog.Logger
}

// NewChallengeHandler builds a new challenge handler.
func NewChallengeHandler(service service.ChallengeService, logger zerolog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		service: service,
		logger:  logger.With().Str("component", "challenge_handler").Logger(),
	}
}

// Register wires the handler routes into the router group.
func (h *ChallengeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/level/:level", h.byLevel)
	router.Get("/next/:level", h.next)
	router.Get("/:id", h.get)
	router.Get("/:id/hint", h.hint)
}

func (h *ChallengeHandler) list(c *fiber.Ctx) error {
	filter := dto.ChallengeFilter{
		Level:      c.Query("level"),
		ModuleType: c.Query("module_type"),
	}
	if page, err := parseQueryInt(c, "page"); err == nil {
		filter.Page = page
	}
	if pageSize, err := parseQueryInt(c, "page_size"); err == nil {
		filter.PageSize = pageSize
	}

	challenges, err := h.service.List(withRequestContext(c), filter)
	if err != nil {
		if isValidationError(err) {
			return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid filter", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list challenges")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve challenges")
	}

	return utils.SendSuccess(c, "challenges retrieved", challenges)
}

func (h *ChallengeHandler) byLevel(c *fiber.Ctx) error {
	challenges, err := h.service.ByLevel(withRequestContext(c), c.Params("level"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("level", c.Params("level")).Msg("failed to list challenges by level")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve challenges")
	}

	return utils.SendSuccess(c, "challenges retrieved", challenges)
}

func (h *ChallengeHandler) next(c *fiber.Ctx) error {
	challenge, err := h.service.Next(withRequestContext(c), c.Params("level"))
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "no challenges found for this level")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to get next challenge")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve challenge")
	}

	return utils.SendSuccess(c, "challenge retrieved", challenge)
}

func (h *ChallengeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	challenge, err := h.service.Get(withRequestContext(c), id)
	if err != nil {
		return h.lookupError(c, id, err)
	}

	return utils.SendSuccess(c, "challenge retrieved", challenge)
}

func (h *ChallengeHandler) hint(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	hint, err := h.service.Hint(withRequestContext(c), id)
	if err != nil {
		return h.lookupError(c, id, err)
	}

	return utils.SendSuccess(c, "hint retrieved", hint)
}

func (h *ChallengeHandler) lookupError(c *fiber.Ctx, id uint, err error) error {
	if errors.Is(err, service.ErrChallengeNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "challenge not found")
	}
	requestLogger(h.logger, c).Error().Err(err).Uint("challenge_id", id).Msg("failed to get challenge")
	return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve challenge")
}
