package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const embeddingKeyPrefix = "promptarena:embedding:"

// CachedEmbedder stores vectors in Redis keyed by model and text hash. Cache
// failures are logged and bypassed; only inner embedder errors are returned.
type CachedEmbedder struct {
	inner  Embedder
	redis  *redis.Client
	model  string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedEmbedder wraps inner. A nil client disables caching.
func NewCachedEmbedder(inner Embedder, client *redis.Client, model string, ttl time.Duration, logger zerolog.Logger) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedEmbedder{
		inner:  inner,
		redis:  client,
		model:  model,
		ttl:    ttl,
		logger: logger.With().Str("component", "embedding_cache").Logger(),
	}
}

// Embed returns cached vectors where available and embeds the rest in one call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.redis == nil || len(texts) == 0 {
		return c.inner.Embed(ctx, texts)
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.cacheKey(text)
	}

	vectors := make([][]float32, len(texts))
	cached, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read embedding cache")
		cached = nil
	}

	var missing []int
	for i := range texts {
		if i < len(cached) {
			if vector, ok := decodeVector(cached[i]); ok {
				vectors[i] = vector
				continue
			}
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	pending := make([]string, len(missing))
	for i, idx := range missing {
		pending[i] = texts[idx]
	}

	fresh, err := c.inner.Embed(ctx, pending)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(pending) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(fresh), len(pending))
	}

	pipe := c.redis.Pipeline()
	for i, idx := range missing {
		vectors[idx] = fresh[i]
		payload, err := json.Marshal(fresh[i])
		if err != nil {
			continue
		}
		pipe.Set(ctx, keys[idx], payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Msg("failed to write embedding cache")
	}

	return vectors, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return embeddingKeyPrefix + c.model + ":" + hex.EncodeToString(sum[:])
}

func decodeVector(value interface{}) ([]float32, bool) {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal([]byte(raw), &vector); err != nil || len(vector) == 0 {
		return nil, false
	}
	return vector, true
}
