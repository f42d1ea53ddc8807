package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultDataURL = "https://catalog.ourworldindata.org/garden/covid/latest/compact/compact.csv"

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Analysis AnalysisConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DataConfig struct {
	URL          string
	CacheFile    string
	CacheMaxAge  time.Duration
	FetchTimeout time.Duration // zero leaves the transport default in place
	Aggregate    string
	MaxYear      int

	// Locations overrides the built-in allow-list when non-empty.
	Locations []LocationPair
}

// LocationPair maps a canonical source name to its display name.
type LocationPair struct {
	Canonical string
	Display   string
}

type AnalysisConfig struct {
	PivotWindowDays    int
	ExtendedWindowDays int
	FocusLocation      string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	locations, err := parseLocations(os.Getenv("DATA_LOCATIONS"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			URL:          getEnvString("DATA_URL", DefaultDataURL),
			CacheFile:    getEnvString("DATA_CACHE_FILE", "owid-covid-data.csv"),
			CacheMaxAge:  getEnvDuration("DATA_CACHE_MAX_AGE", 24*time.Hour),
			FetchTimeout: getEnvDuration("DATA_FETCH_TIMEOUT", 0),
			Aggregate:    getEnvString("DATA_AGGREGATE", DefaultAggregate),
			MaxYear:      getEnvInt("DATA_MAX_YEAR", 2023),
			Locations:    locations,
		},
		Analysis: AnalysisConfig{
			PivotWindowDays:    getEnvInt("ANALYSIS_PIVOT_WINDOW_DAYS", 90),
			ExtendedWindowDays: getEnvInt("ANALYSIS_EXTENDED_WINDOW_DAYS", 180),
			FocusLocation:      getEnvString("ANALYSIS_FOCUS_LOCATION", "Brasil"),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.URL == "" {
		return fmt.Errorf("data URL cannot be empty")
	}

	if c.Data.CacheFile == "" {
		return fmt.Errorf("cache file path cannot be empty")
	}

	if c.Data.CacheMaxAge <= 0 {
		return fmt.Errorf("cache max age must be positive")
	}

	if c.Data.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout cannot be negative")
	}

	if c.Data.Aggregate == "" {
		return fmt.Errorf("aggregate location cannot be empty")
	}

	if err := validateLocations(c.Data.AllowedLocations(), c.Data.Aggregate); err != nil {
		return err
	}

	if c.Analysis.PivotWindowDays < 1 || c.Analysis.ExtendedWindowDays < 1 {
		return fmt.Errorf("analysis windows must be at least one day, got %d and %d",
			c.Analysis.PivotWindowDays, c.Analysis.ExtendedWindowDays)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
