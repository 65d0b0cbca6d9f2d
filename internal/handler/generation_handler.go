package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/dto"
	"github.com/noah-isme/promptarena-go-api/internal/service"
	"github.com/noah-isme/promptarena-go-api/internal/utils"
)

// GenerationHandler proxies prompts to the text generation backend.
type GenerationHandler struct {
	service service.GenerationService
	logger  zerolog.Logger
}

// NewGenerationHandler constructs a generation handler.
func NewGenerationHandler(service service.GenerationService, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		logger:  logger.With().Str("component", "generation_handler").Logger(),
	}
}

// Register wires generation routes.
func (h *GenerationHandler) Register(router fiber.Router) {
	router.Post("/text", h.text)
}

func (h *GenerationHandler) text(c *fiber.Ctx) error {
	var payload dto.GenerationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Generate(withRequestContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
		case errors.Is(err, service.ErrGeneratorUnavailable):
			return utils.SendError(c, fiber.StatusServiceUnavailable, "text generation is not configured")
		case errors.Is(err, context.DeadlineExceeded):
			return utils.SendError(c, fiber.StatusGatewayTimeout, "text generation timed out")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("text generation failed")
			return utils.SendError(c, fiber.StatusBadGateway, "text generation failed")
		}
	}

	return utils.SendSuccess(c, "text generated", response)
}
