package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGeneratorReturnsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		require.Equal(t, "Write a haiku about autumn", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"  Leaves fall softly  "},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":5,"total_tokens":17}}`))
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	result, err := generator.Generate(context.Background(), GenerationInput{Prompt: "Write a haiku about autumn"})
	require.NoError(t, err)
	require.Equal(t, "Leaves fall softly", result.Text)
	require.Equal(t, ProviderOpenAI, result.Provider)
	require.Equal(t, 12, result.PromptTokens)
	require.Equal(t, 5, result.CompletionTokens)
}

func TestOpenAIGeneratorRejectsEmptyPrompt(t *testing.T) {
	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test"})
	require.NoError(t, err)

	_, err = generator.Generate(context.Background(), GenerationInput{Prompt: "   "})
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestNewOpenAIBackendsRequireKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	require.Error(t, err)
	_, err = NewOpenAIEmbedder(OpenAIConfig{})
	require.Error(t, err)
	_, err = NewAnthropicGenerator(AnthropicConfig{})
	require.Error(t, err)
}

func TestOpenAIEmbedderOrdersVectorsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "text-embedding-3-small", body.Model)
		require.Equal(t, []string{"first", "second"}, body.Input)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":1,"embedding":[0,1]},{"object":"embedding","index":0,"embedding":[1,0]}],"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	require.Equal(t, "text-embedding-3-small", embedder.Model())

	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestAnthropicGeneratorReturnsTextBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":"A calm lake at dawn."}],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":9,"output_tokens":6}}`))
	}))
	defer server.Close()

	generator, err := NewAnthropicGenerator(AnthropicConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := generator.Generate(context.Background(), GenerationInput{Prompt: "Describe a lake"})
	require.NoError(t, err)
	require.Equal(t, "A calm lake at dawn.", result.Text)
	require.Equal(t, ProviderAnthropic, result.Provider)
	require.Equal(t, 9, result.PromptTokens)
	require.Equal(t, 6, result.CompletionTokens)
}

type countingEmbedder struct {
	mu     sync.Mutex
	inputs [][]string
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, append([]string(nil), texts...))

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestCachedEmbedderServesRepeatsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, client, "text-embedding-3-small", time.Hour, zerolog.Nop())

	first, err := cached.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{5, 1}, {4, 1}}, first)

	second, err := cached.Embed(context.Background(), []string{"beta", "gamma"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{4, 1}, {5, 1}}, second)

	require.Equal(t, [][]string{{"alpha", "beta"}, {"gamma"}}, inner.inputs)

	keys := mr.Keys()
	require.Len(t, keys, 3)
	for _, key := range keys {
		require.Contains(t, key, "promptarena:embedding:text-embedding-3-small:")
	}
	require.True(t, mr.TTL(keys[0]) > 0)
}

func TestCachedEmbedderBypassesUnavailableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, client, "m", time.Minute, zerolog.Nop())

	vectors, err := cached.Embed(context.Background(), []string{"abc"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{3, 1}}, vectors)
	require.Len(t, inner.inputs, 1)
}
