package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, DefaultDataURL, cfg.Data.URL)
	assert.Equal(t, "owid-covid-data.csv", cfg.Data.CacheFile)
	assert.Equal(t, 24*time.Hour, cfg.Data.CacheMaxAge)
	assert.Zero(t, cfg.Data.FetchTimeout)
	assert.Equal(t, "World", cfg.Data.Aggregate)
	assert.Equal(t, 2023, cfg.Data.MaxYear)
	assert.Empty(t, cfg.Data.Locations)
	assert.Equal(t, 90, cfg.Analysis.PivotWindowDays)
	assert.Equal(t, 180, cfg.Analysis.ExtendedWindowDays)
	assert.Equal(t, "Brasil", cfg.Analysis.FocusLocation)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Security.EnableRateLimit)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATA_URL", "http://example.test/data.csv")
	t.Setenv("DATA_CACHE_FILE", "/tmp/cache.csv")
	t.Setenv("DATA_CACHE_MAX_AGE", "1h")
	t.Setenv("DATA_FETCH_TIMEOUT", "30s")
	t.Setenv("DATA_LOCATIONS", "World=World, Chile=Chile")
	t.Setenv("DATA_MAX_YEAR", "2024")
	t.Setenv("ANALYSIS_PIVOT_WINDOW_DAYS", "30")
	t.Setenv("ANALYSIS_FOCUS_LOCATION", "Chile")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://example.test/data.csv", cfg.Data.URL)
	assert.Equal(t, "/tmp/cache.csv", cfg.Data.CacheFile)
	assert.Equal(t, time.Hour, cfg.Data.CacheMaxAge)
	assert.Equal(t, 30*time.Second, cfg.Data.FetchTimeout)
	assert.Equal(t, 2024, cfg.Data.MaxYear)
	assert.Equal(t, []LocationPair{
		{Canonical: "World", Display: "World"},
		{Canonical: "Chile", Display: "Chile"},
	}, cfg.Data.Locations)
	assert.Equal(t, 30, cfg.Analysis.PivotWindowDays)
	assert.Equal(t, "Chile", cfg.Analysis.FocusLocation)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		message string
	}{
		{"port out of range", "SERVER_PORT", "70000", "server port"},
		{"zero cache age", "DATA_CACHE_MAX_AGE", "0s", "cache max age"},
		{"negative fetch timeout", "DATA_FETCH_TIMEOUT", "-1s", "fetch timeout"},
		{"zero window", "ANALYSIS_PIVOT_WINDOW_DAYS", "0", "analysis windows"},
		{"bad log level", "LOG_LEVEL", "verbose", "invalid log level"},
		{"bad log format", "LOG_FORMAT", "xml", "invalid log format"},
		{"malformed locations", "DATA_LOCATIONS", "World", "DATA_LOCATIONS"},
		{"duplicate display name", "DATA_LOCATIONS", "World=Mundo,Chile=Chile,Peru=Chile", `display name "Chile" is used by both "Chile" and "Peru"`},
		{"duplicate canonical", "DATA_LOCATIONS", "World=Mundo,Chile=Chile,Chile=Chili", `lists "Chile" more than once`},
		{"aggregate missing from locations", "DATA_LOCATIONS", "Chile=Chile,Peru=Peru", `aggregate location "World" is not in DATA_LOCATIONS`},
		{"aggregate missing from defaults", "DATA_AGGREGATE", "Planet", `aggregate location "Planet"`},
		{"zero rate limit", "SECURITY_RATE_LIMIT_RPS", "0", "rate limit RPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseLocations(t *testing.T) {
	pairs, err := parseLocations("")
	require.NoError(t, err)
	assert.Nil(t, pairs)

	pairs, err = parseLocations("United States=Estados Unidos")
	require.NoError(t, err)
	assert.Equal(t, []LocationPair{{Canonical: "United States", Display: "Estados Unidos"}}, pairs)

	_, err = parseLocations("Brazil=")
	assert.Error(t, err)
}

func TestValidateLocations(t *testing.T) {
	assert.NoError(t, validateLocations(DefaultLocations, DefaultAggregate))
	assert.NoError(t, validateLocations([]LocationPair{{Canonical: "Europe", Display: "Europa"}}, "Europe"))
	assert.Error(t, validateLocations(nil, DefaultAggregate))
}

func TestAllowedLocations(t *testing.T) {
	assert.Equal(t, DefaultLocations, DataConfig{}.AllowedLocations())

	custom := []LocationPair{{Canonical: "World", Display: "World"}}
	assert.Equal(t, custom, DataConfig{Locations: custom}.AllowedLocations())
}
