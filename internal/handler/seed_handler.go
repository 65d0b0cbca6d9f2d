package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/catalog"
	"github.com/noah-isme/promptarena-go-api/internal/service"
	"github.com/noah-isme/promptarena-go-api/internal/utils"
)

// SeedHandler exposes tooling endpoints for seeding the challenge catalog.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/challenges", h.challenges)
}

// challenges upserts the built-in catalog, or the YAML catalog document in
// the request body when one is sent.
func (h *SeedHandler) challenges(c *fiber.Ctx) error {
	token := c.Get("X-Seed-Token")

	var entries []catalog.Entry
	if body := c.Body(); len(body) > 0 {
		parsed, err := catalog.Parse(body)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		entries = parsed
	}

	affected, err := h.service.SeedChallenges(withRequestContext(c), token, entries)
	if err != nil {
		return h.seedError(c, err)
	}

	return utils.SendSuccess(c, "challenges seeded", fiber.Map{"affected": affected})
}

func (h *SeedHandler) seedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
	case errors.Is(err, service.ErrSeedUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, "invalid token")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
	}
}
