package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/promptarena-go-api/internal/config"
	"github.com/noah-isme/promptarena-go-api/internal/handler"
	"github.com/noah-isme/promptarena-go-api/internal/middleware"
	"github.com/noah-isme/promptarena-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ChallengeHandler  *handler.ChallengeHandler
	SubmissionHandler *handler.SubmissionHandler
	GenerationHandler *handler.GenerationHandler
	SeedHandler       *handler.SeedHandler
	HealthChecks      map[string]handler.HealthCheckFunc
	// AuthMiddleware overrides the JWT guard derived from cfg.
	AuthMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	auth := deps.AuthMiddleware
	if auth == nil {
		auth = authMiddleware(cfg)
	}

	if deps.ChallengeHandler != nil {
		deps.ChallengeHandler.Register(api.Group("/challenges", auth))
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", auth, middleware.RateLimit("submissions", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.GenerationHandler != nil {
		generate := api.Group("/generate", auth, middleware.RateLimit("generate", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.GenerationHandler.Register(generate)
	}

	// Seeding is guarded by its own token rather than a user session.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/tools/seed"))
	}
}

func authMiddleware(cfg config.Config) fiber.Handler {
	switch {
	case cfg.RequireAuth:
		return middleware.JWTProtected(cfg.JWTSecret)
	case cfg.JWTSecret != "":
		return middleware.OptionalJWT(cfg.JWTSecret)
	default:
		return func(c *fiber.Ctx) error { return c.Next() }
	}
}
