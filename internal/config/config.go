package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	NATSSubject string
	JWTSecret   string
	RequireAuth bool

	GenerationProvider string
	GenerationModel    string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	AnthropicAPIKey    string
	EmbeddingModel     string
	EmbeddingTimeout   time.Duration
	EmbeddingCacheTTL  time.Duration

	LowScoreThreshold float64
	MinTaskWords      int
	RequireActionVerb bool
	ExcludeStopWords  bool
	CatalogPath       string

	DockerHost       string
	ExecutionTimeout time.Duration
	CodeRunMemoryMB  int
	CodeRunCPUShares int
	CodeRunImage     string

	SeedEnabled bool
	SeedToken   string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// EmbeddingsEnabled reports whether an embedding backend can be constructed.
func (c Config) EmbeddingsEnabled() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

// Evaluation returns the scoring engine settings.
func (c Config) Evaluation() evaluation.Config {
	return evaluation.Config{
		Rules: evaluation.RuleConfig{
			MinTaskWords:      c.MinTaskWords,
			RequireActionVerb: c.RequireActionVerb,
		},
		Similarity: evaluation.SimilarityConfig{
			EmbedTimeout:     c.EmbeddingTimeout,
			ExcludeStopWords: c.ExcludeStopWords,
		},
		LowScoreThreshold: c.LowScoreThreshold,
	}
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PROMPTARENA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PromptArena API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "sqlite://promptarena.db")
	v.SetDefault("nats.subject", "promptarena.evaluations.completed")
	v.SetDefault("require_auth", false)
	v.SetDefault("generation.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.timeout", "10s")
	v.SetDefault("embedding.cache_ttl", "24h")
	v.SetDefault("evaluation.low_score_threshold", 4.0)
	v.SetDefault("evaluation.min_task_words", 10)
	v.SetDefault("evaluation.require_action_verb", false)
	v.SetDefault("evaluation.exclude_stop_words", true)
	v.SetDefault("execution_timeout_ms", 5000)
	v.SetDefault("code_run.memory_mb", 128)
	v.SetDefault("code_run.cpu_shares", 512)
	v.SetDefault("code_run.image", "python:3.11-alpine")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")

	embedTimeout, err := parseDuration(v, "embedding.timeout")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "embedding.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	window, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		NATSSubject:        v.GetString("nats.subject"),
		JWTSecret:          v.GetString("jwt.secret"),
		RequireAuth:        v.GetBool("require_auth"),
		GenerationProvider: strings.ToLower(strings.TrimSpace(v.GetString("generation.provider"))),
		GenerationModel:    v.GetString("generation.model"),
		OpenAIAPIKey:       v.GetString("openai.api_key"),
		OpenAIBaseURL:      v.GetString("openai.base_url"),
		AnthropicAPIKey:    v.GetString("anthropic.api_key"),
		EmbeddingModel:     v.GetString("embedding.model"),
		EmbeddingTimeout:   embedTimeout,
		EmbeddingCacheTTL:  cacheTTL,
		LowScoreThreshold:  v.GetFloat64("evaluation.low_score_threshold"),
		MinTaskWords:       v.GetInt("evaluation.min_task_words"),
		RequireActionVerb:  v.GetBool("evaluation.require_action_verb"),
		ExcludeStopWords:   v.GetBool("evaluation.exclude_stop_words"),
		CatalogPath:        v.GetString("catalog.path"),
		DockerHost:         v.GetString("docker_host"),
		ExecutionTimeout:   time.Duration(timeoutMs) * time.Millisecond,
		CodeRunMemoryMB:    v.GetInt("code_run.memory_mb"),
		CodeRunCPUShares:   v.GetInt("code_run.cpu_shares"),
		CodeRunImage:       v.GetString("code_run.image"),
		SeedEnabled:        v.GetBool("seed.enabled"),
		SeedToken:          v.GetString("seed.token"),
		RateLimitMax:       v.GetInt("rate_limit.max"),
		RateLimitWindow:    window,
	}

	if cfg.RequireAuth && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided when auth is required")
	}

	if cfg.SeedEnabled && strings.TrimSpace(cfg.SeedToken) == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}

	switch cfg.GenerationProvider {
	case "openai", "anthropic":
	default:
		return Config{}, fmt.Errorf("unsupported generation provider %q", cfg.GenerationProvider)
	}

	if cfg.LowScoreThreshold < 0 {
		return Config{}, fmt.Errorf("evaluation low score threshold must not be negative")
	}

	if cfg.CodeRunMemoryMB <= 0 {
		cfg.CodeRunMemoryMB = 128
	}

	if cfg.CodeRunCPUShares <= 0 {
		cfg.CodeRunCPUShares = 512
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
