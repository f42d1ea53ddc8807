package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-dashboard/internal/config"
	"covid-dashboard/internal/dataset"
	"covid-dashboard/internal/models"
	"covid-dashboard/internal/observability"
)

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{PivotWindowDays: 30, ExtendedWindowDays: 60, FocusLocation: "Brasil"},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  2,
			AllowedOrigins:  []string{"http://localhost:8084"},
		},
	}
}

func testHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	metrics := observability.NewMetricsForTesting()

	analytics := newAnalytics(cfg, logger, metrics)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []models.DailyRecord
	for i := range 120 {
		vaccinated := 0.0
		if i >= 60 {
			vaccinated = float64(i)
		}
		records = append(records, models.DailyRecord{
			Location:         "Brazil",
			Date:             start.AddDate(0, 0, i),
			NewCases:         models.Known(100),
			NewDeaths:        models.Known(5),
			TotalDeaths:      models.Known(float64(5 * (i + 1))),
			PeopleVaccinated: models.Known(vaccinated),
		})
	}
	analytics.SetDataset(dataset.New(records, dataset.NewAllowList(nil, ""), 2023))

	reg := prometheus.NewRegistry()
	return newHandler(cfg, analytics, logger, metrics, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

func TestNewAnalyticsUsesConfiguredWindows(t *testing.T) {
	h := testHandler(t, testConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?location=Brasil", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Pivot struct {
				WindowDays int `json:"window_days"`
			} `json:"pivot_comparison"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 30, body.Data.Pivot.WindowDays)
}

func TestHandlerMiddlewareStack(t *testing.T) {
	h := testHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:8084")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:8084", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandlerRateLimits(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitRPS = 1
	h := testHandler(t, cfg)

	var codes []int
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHandlerServesMetrics(t *testing.T) {
	h := testHandler(t, testConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
