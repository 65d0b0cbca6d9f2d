package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "PromptArena API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "sqlite://promptarena.db", cfg.DatabaseURL)
	require.Equal(t, "openai", cfg.GenerationProvider)
	require.Equal(t, 4.0, cfg.LowScoreThreshold)
	require.Equal(t, 10, cfg.MinTaskWords)
	require.False(t, cfg.RequireActionVerb)
	require.True(t, cfg.ExcludeStopWords)
	require.Equal(t, 10*time.Second, cfg.EmbeddingTimeout)
	require.Equal(t, 24*time.Hour, cfg.EmbeddingCacheTTL)
	require.Equal(t, 5*time.Second, cfg.ExecutionTimeout)
	require.Equal(t, 128, cfg.CodeRunMemoryMB)
	require.Equal(t, "python:3.11-alpine", cfg.CodeRunImage)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.False(t, cfg.EmbeddingsEnabled())
}

func TestLoadReadsPrefixedEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PROMPTARENA_APP_PORT", ":9090")
	t.Setenv("PROMPTARENA_OPENAI_API_KEY", "sk-test")
	t.Setenv("PROMPTARENA_EVALUATION_LOW_SCORE_THRESHOLD", "5.5")
	t.Setenv("PROMPTARENA_EVALUATION_REQUIRE_ACTION_VERB", "true")
	t.Setenv("PROMPTARENA_EMBEDDING_TIMEOUT", "250ms")
	t.Setenv("PROMPTARENA_EXECUTION_TIMEOUT_MS", "1500")
	t.Setenv("PROMPTARENA_GENERATION_PROVIDER", "Anthropic")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.True(t, cfg.EmbeddingsEnabled())
	require.Equal(t, 5.5, cfg.LowScoreThreshold)
	require.True(t, cfg.RequireActionVerb)
	require.Equal(t, 250*time.Millisecond, cfg.EmbeddingTimeout)
	require.Equal(t, 1500*time.Millisecond, cfg.ExecutionTimeout)
	require.Equal(t, "anthropic", cfg.GenerationProvider)
}

func TestLoadValidatesDependentSettings(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("auth without secret", func(t *testing.T) {
		t.Setenv("PROMPTARENA_REQUIRE_AUTH", "true")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("seed without token", func(t *testing.T) {
		t.Setenv("PROMPTARENA_SEED_ENABLED", "true")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("PROMPTARENA_GENERATION_PROVIDER", "cohere")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("negative threshold", func(t *testing.T) {
		t.Setenv("PROMPTARENA_EVALUATION_LOW_SCORE_THRESHOLD", "-1")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("PROMPTARENA_EMBEDDING_CACHE_TTL", "forever")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestLoadAllowsZeroThreshold(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PROMPTARENA_EVALUATION_LOW_SCORE_THRESHOLD", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 0.0, cfg.LowScoreThreshold)
	require.Equal(t, 0.0, cfg.Evaluation().LowScoreThreshold)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
