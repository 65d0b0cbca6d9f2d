package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/promptarena-go-api/internal/catalog"
	"github.com/noah-isme/promptarena-go-api/internal/config"
	"github.com/noah-isme/promptarena-go-api/internal/database"
	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/events"
	"github.com/noah-isme/promptarena-go-api/internal/handler"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
	"github.com/noah-isme/promptarena-go-api/internal/middleware"
	"github.com/noah-isme/promptarena-go-api/internal/models"
	"github.com/noah-isme/promptarena-go-api/internal/observability"
	"github.com/noah-isme/promptarena-go-api/internal/repository"
	"github.com/noah-isme/promptarena-go-api/internal/router"
	"github.com/noah-isme/promptarena-go-api/internal/service"
	"github.com/noah-isme/promptarena-go-api/pkg/ai"
	dockerexec "github.com/noah-isme/promptarena-go-api/pkg/docker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(&models.Challenge{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	entries, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load challenge catalog")
	}

	healthChecks := map[string]handler.HealthCheckFunc{
		"database": databaseCheck(db),
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, 0)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, embeddings will not be cached")
		} else {
			defer redisClient.Close()
			healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, evaluation events disabled")
		} else {
			defer natsConn.Drain()
			healthChecks["nats"] = func(context.Context) error {
				if !natsConn.IsConnected() {
					return nats.ErrConnectionClosed
				}
				return nil
			}
		}
	}

	var runner harness.Runner
	if executor, err := connectDocker(cfg, logger); err != nil {
		logger.Warn().Err(err).Msg("docker unavailable, code challenges scored on output text")
	} else {
		defer executor.Close()
		runner = harness.NewDockerRunner(executor, harness.Config{
			Image:         cfg.CodeRunImage,
			CaseTimeout:   cfg.ExecutionTimeout,
			MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
			CPUShares:     int64(cfg.CodeRunCPUShares),
		}, logger, observability.ObserveHarnessCase)
		healthChecks["docker"] = executor.Ping
	}

	engine := evaluation.NewEngine(cfg.Evaluation(), embeddingBackend(cfg, redisClient, logger), runner, logger, observability.NewEvaluationMetrics())

	var publisher events.Publisher = events.NopPublisher{}
	if natsConn != nil {
		publisher = events.NewNATSPublisher(natsConn, cfg.NATSSubject, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	challengeRepo := repository.NewChallengeRepository(db)

	seedService := service.NewSeedService(challengeRepo, entries, cfg.SeedEnabled, cfg.SeedToken, logger)
	if seeded, err := seedService.EnsureCatalog(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed challenge catalog")
	} else if seeded > 0 {
		logger.Info().Int64("challenges", seeded).Msg("seeded challenge catalog")
	}

	challengeService := service.NewChallengeService(challengeRepo, validate, logger)
	submissionService := service.NewSubmissionService(challengeRepo, engine, publisher, validate, logger)
	generationService := service.NewGenerationService(generators(cfg, logger), validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		ChallengeHandler:  handler.NewChallengeHandler(challengeService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		GenerationHandler: handler.NewGenerationHandler(generationService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		HealthChecks:      healthChecks,
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func loadCatalog(cfg config.Config) ([]catalog.Entry, error) {
	if cfg.CatalogPath != "" {
		return catalog.LoadFile(cfg.CatalogPath)
	}
	return catalog.Load()
}

func connectDocker(cfg config.Config, logger zerolog.Logger) (*dockerexec.DockerExecutor, error) {
	executor, err := dockerexec.NewDockerExecutor(dockerexec.Config{
		Host:          cfg.DockerHost,
		Timeout:       cfg.ExecutionTimeout,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := executor.Ping(ctx); err != nil {
		_ = executor.Close()
		return nil, err
	}
	return executor, nil
}

func databaseCheck(db *gorm.DB) handler.HealthCheckFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// embeddingBackend defers building the OpenAI client until the first
// similarity request. Without an API key every comparison is lexical.
func embeddingBackend(cfg config.Config, redisClient *redis.Client, logger zerolog.Logger) *evaluation.LazyBackend {
	if !cfg.EmbeddingsEnabled() {
		logger.Info().Msg("no embedding api key configured, similarity uses lexical scoring")
		return nil
	}

	return evaluation.NewLazyBackend(func() (evaluation.Embedder, error) {
		embedder, err := ai.NewOpenAIEmbedder(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		if redisClient == nil {
			return embedder, nil
		}
		return ai.NewCachedEmbedder(embedder, redisClient, cfg.EmbeddingModel, cfg.EmbeddingCacheTTL, logger), nil
	})
}

// generators returns the configured provider first and the other one as a fallback.
func generators(cfg config.Config, logger zerolog.Logger) []ai.Generator {
	build := map[string]func() (ai.Generator, error){
		ai.ProviderOpenAI: func() (ai.Generator, error) {
			return ai.NewOpenAIGenerator(ai.OpenAIConfig{
				APIKey:  cfg.OpenAIAPIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.GenerationModel,
				Logger:  logger,
			})
		},
		ai.ProviderAnthropic: func() (ai.Generator, error) {
			return ai.NewAnthropicGenerator(ai.AnthropicConfig{
				APIKey: cfg.AnthropicAPIKey,
				Model:  cfg.GenerationModel,
				Logger: logger,
			})
		},
	}

	order := []string{ai.ProviderOpenAI, ai.ProviderAnthropic}
	if cfg.GenerationProvider == ai.ProviderAnthropic {
		order = []string{ai.ProviderAnthropic, ai.ProviderOpenAI}
	}

	result := make([]ai.Generator, 0, len(order))
	for i, name := range order {
		// The model name only applies to the primary provider.
		if i > 0 {
			cfg.GenerationModel = ""
		}
		generator, err := build[name]()
		if err != nil {
			logger.Debug().Err(err).Str("provider", name).Msg("text generation provider disabled")
			continue
		}
		result = append(result, generator)
	}
	return result
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
