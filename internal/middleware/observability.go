package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/observability"
)

var latencyBuckets = []struct {
	limit time.Duration
	label string
}{
	{25 * time.Millisecond, "<=25ms"},
	{50 * time.Millisecond, "<=50ms"},
	{100 * time.Millisecond, "<=100ms"},
	{250 * time.Millisecond, "<=250ms"},
	{500 * time.Millisecond, "<=500ms"},
	{2 * time.Second, "<=2s"},
}

// Observability records Prometheus metrics for /api routes and writes one
// structured access line per request.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), "/api/") {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		route := routeTemplate(c)
		method := c.Method()
		status := responseStatus(c, err)
		code := strconv.Itoa(status)

		observability.HTTPRequests().WithLabelValues(method, route, code).Inc()
		observability.HTTPLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.HTTPErrors().WithLabelValues(method, route, code).Inc()
		}

		event := accessEvent(logger, status, route).
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("latency_bucket", latencyBucket(elapsed)).
			Int("bytes_out", len(c.Response().Body()))
		if subject := UserID(c); subject != "" {
			event = event.Str("user_id", subject)
		}
		event.Msg("request completed")

		return err
	}
}

// accessEvent picks the log level for a finished request. Health probes only
// show up at debug level.
func accessEvent(logger zerolog.Logger, status int, route string) *zerolog.Event {
	switch {
	case status >= fiber.StatusInternalServerError:
		return logger.Error()
	case status >= fiber.StatusBadRequest:
		return logger.Warn()
	case strings.HasSuffix(route, "/health"):
		return logger.Debug()
	default:
		return logger.Info()
	}
}

// responseStatus reports the status the client will see. Errors returned by
// handlers are turned into responses by the app error handler after this
// middleware runs.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}

func latencyBucket(elapsed time.Duration) string {
	for _, bucket := range latencyBuckets {
		if elapsed <= bucket.limit {
			return bucket.label
		}
	}
	return ">2s"
}
