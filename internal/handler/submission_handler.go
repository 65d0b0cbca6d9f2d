package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/dto"
	"github.com/noah-isme/promptarena-go-api/internal/service"
	"github.com/noah-isme/promptarena-go-api/internal/utils"
)

// SubmissionHandler exposes prompt scoring endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires submission routes. /create is kept as an alias of /score.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/score", h.score)
	router.Post("/create", h.score)
}

func (h *SubmissionHandler) score(c *fiber.Ctx) error {
	var payload dto.SubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Score(withRequestContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("challenge_id", payload.ChallengeID).Msg("failed to score submission")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to score submission")
	}

	return utils.SendSuccess(c, "submission scored", response)
}
