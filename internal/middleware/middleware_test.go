package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func subjectApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", handler, func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestJWTProtected(t *testing.T) {
	app := subjectApp(JWTProtected(testSecret))

	status, _ := doGet(t, app, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doGet(t, app, map[string]string{"Authorization": "Basic abc"})
	require.Equal(t, fiber.StatusUnauthorized, status)

	wrongKey := signToken(t, "other", jwt.MapClaims{"sub": "learner-1"})
	status, _ = doGet(t, app, map[string]string{"Authorization": "Bearer " + wrongKey})
	require.Equal(t, fiber.StatusUnauthorized, status)

	expired := signToken(t, testSecret, jwt.MapClaims{"sub": "learner-1", "exp": time.Now().Add(-time.Hour).Unix()})
	status, _ = doGet(t, app, map[string]string{"Authorization": "Bearer " + expired})
	require.Equal(t, fiber.StatusUnauthorized, status)

	valid := signToken(t, testSecret, jwt.MapClaims{"sub": "learner-1"})
	status, body := doGet(t, app, map[string]string{"Authorization": "Bearer " + valid})
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "learner-1", body)

	numeric := signToken(t, testSecret, jwt.MapClaims{"user_id": 42})
	status, body = doGet(t, app, map[string]string{"Authorization": "bearer " + numeric})
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "42", body)
}

func TestOptionalJWT(t *testing.T) {
	app := subjectApp(OptionalJWT(testSecret))

	status, body := doGet(t, app, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Empty(t, body)

	status, _ = doGet(t, app, map[string]string{"Authorization": "Bearer nonsense"})
	require.Equal(t, fiber.StatusUnauthorized, status)

	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	_, raw := doGet(t, app, map[string]string{"Authorization": "Bearer nonsense"})
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	require.False(t, payload.Success)
	require.Equal(t, "invalid token", payload.Message)
}

func TestCorrelationIDPropagation(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationIDFromContext(c.UserContext()) + "|" + GetCorrelationID(c))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "abc-123|abc-123", string(body))
	require.Equal(t, "abc-123", resp.Header.Get(HeaderCorrelationID))

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, strings.Repeat("x", 200))
	resp, err = app.Test(req)
	require.NoError(t, err)
	generated := resp.Header.Get(HeaderCorrelationID)
	require.Len(t, generated, 36)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	app := fiber.New()
	app.Get("/", RateLimit("test", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		status, _ := doGet(t, app, nil)
		require.Equal(t, fiber.StatusNoContent, status)
	}
	status, _ := doGet(t, app, nil)
	require.Equal(t, fiber.StatusTooManyRequests, status)
}

func TestObservabilityUsesHandlerErrorStatus(t *testing.T) {
	app := fiber.New()
	Register(app, Config{Logger: func() *zerolog.Logger { l := zerolog.New(io.Discard); return &l }()})
	app.Get("/api/v1/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/missing", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(HeaderCorrelationID))
}

func TestObservabilityLogsAccessLine(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	app := fiber.New()
	app.Use(CorrelationID(), Observability(logger))
	app.Get("/api/v1/challenges/:id", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendString("# metrics")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/challenges/7", nil)
	req.Header.Set(HeaderCorrelationID, "corr-42")
	_, err := app.Test(req)
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "/api/v1/challenges/:id", entry["route"])
	require.Equal(t, "corr-42", entry["correlation_id"])
	require.Equal(t, float64(fiber.StatusOK), entry["status"])
	require.Equal(t, float64(2), entry["bytes_out"])
}

func TestLatencyBucket(t *testing.T) {
	require.Equal(t, "<=25ms", latencyBucket(10*time.Millisecond))
	require.Equal(t, "<=500ms", latencyBucket(300*time.Millisecond))
	require.Equal(t, "<=2s", latencyBucket(2*time.Second))
	require.Equal(t, ">2s", latencyBucket(3*time.Second))
}
