package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
)

func TestEvaluationMetricsRecordsObservations(t *testing.T) {
	metrics := NewEvaluationMetrics()

	before := testutil.ToFloat64(evaluationsTotal.WithLabelValues("image", "good", "lexical"))
	metrics.ObserveEvaluation(evaluation.ModuleImage, evaluation.TierGood, evaluation.BackendLexical, 20*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(evaluationsTotal.WithLabelValues("image", "good", "lexical")))

	fallbacks := testutil.ToFloat64(similarityFallbacks.WithLabelValues("timeout"))
	metrics.ObserveFallback("timeout")
	require.Equal(t, fallbacks+1, testutil.ToFloat64(similarityFallbacks.WithLabelValues("timeout")))

	help := testutil.ToFloat64(autoHelpTotal.WithLabelValues("code"))
	metrics.ObserveAutoHelp(evaluation.ModuleCode)
	require.Equal(t, help+1, testutil.ToFloat64(autoHelpTotal.WithLabelValues("code")))

	timedOut := testutil.ToFloat64(harnessCasesTotal.WithLabelValues("timed_out"))
	ObserveHarnessCase(harness.StatusTimedOut)
	require.Equal(t, timedOut+1, testutil.ToFloat64(harnessCasesTotal.WithLabelValues("timed_out")))
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	NewEvaluationMetrics().ObserveFallback("unavailable")

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "promptarena_evaluation_similarity_fallbacks_total"))
}
