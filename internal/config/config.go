// Package config provides configuration loading and validation for the server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Trace exporters
const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

// Config holds every setting the server reads from app.env or the environment.
type Config struct {
	// Server
	ServerAddress  string   `mapstructure:"SERVER_ADDRESS"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	// Store
	StoreBackend          string `mapstructure:"STORE_BACKEND"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	EnrichmentConcurrency int    `mapstructure:"ENRICHMENT_CONCURRENCY"`

	// Auth
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenDuration  time.Duration `mapstructure:"TOKEN_DURATION"`
	CookieName     string        `mapstructure:"COOKIE_NAME"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`
	GoogleClientID string        `mapstructure:"GOOGLE_CLIENT_ID"`

	// Policy
	RequireOwnerOnCreate       bool `mapstructure:"REQUIRE_OWNER_ON_CREATE"`
	RequireOwnerOnStatusUpdate bool `mapstructure:"REQUIRE_OWNER_ON_STATUS_UPDATE"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Tracing
	TraceExporter string `mapstructure:"TRACE_EXPORTER"`
	OTLPEndpoint  string `mapstructure:"OTLP_ENDPOINT"`
	OTLPInsecure  bool   `mapstructure:"OTLP_INSECURE"`

	// Rate limiting
	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
}

// defaults registers every key so AutomaticEnv can resolve it on Unmarshal
var defaults = map[string]any{
	"SERVER_ADDRESS":                 ":8080",
	"ALLOWED_ORIGINS":                "http://localhost:5173",
	"STORE_BACKEND":                  StoreBackendPostgres,
	"DATABASE_URL":                   "",
	"ENRICHMENT_CONCURRENCY":         8,
	"JWT_SECRET":                     "",
	"TOKEN_DURATION":                 "24h",
	"COOKIE_NAME":                    "token",
	"COOKIE_SECURE":                  false,
	"GOOGLE_CLIENT_ID":               "",
	"REQUIRE_OWNER_ON_CREATE":        false,
	"REQUIRE_OWNER_ON_STATUS_UPDATE": false,
	"LOG_LEVEL":                      "info",
	"LOG_FORMAT":                     "json",
	"TRACE_EXPORTER":                 TraceExporterNone,
	"OTLP_ENDPOINT":                  "localhost:4318",
	"OTLP_INSECURE":                  true,
	"RATE_LIMIT_ENABLED":             true,
	"RATE_LIMIT_RPS":                 10.0,
	"RATE_LIMIT_BURST":               20,
}

// LoadConfig reads app.env from path when present and overlays environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	err = config.Validate()
	return config, err
}

// Validate normalizes values and checks that they are usable.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.TraceExporter = strings.ToLower(strings.TrimSpace(c.TraceExporter))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.AllowedOrigins = normalizeOrigins(c.AllowedOrigins)

	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: DATABASE_URL is required when STORE_BACKEND is %q", StoreBackendPostgres)
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("config error: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.EnrichmentConcurrency < 1 {
		return fmt.Errorf("config error: ENRICHMENT_CONCURRENCY must be at least 1, got: %d", c.EnrichmentConcurrency)
	}

	switch c.TraceExporter {
	case "", TraceExporterNone, TraceExporterStdout, TraceExporterOTLP:
	default:
		return fmt.Errorf("config error: unknown TRACE_EXPORTER %q", c.TraceExporter)
	}

	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst < 1) {
		return fmt.Errorf("config error: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	return nil
}

// JWT returns the token settings as a validated JWTConfig.
func (c *Config) JWT() (*JWTConfig, error) {
	jwt := &JWTConfig{
		Secret:         c.JWTSecret,
		TokenDuration:  c.TokenDuration,
		CookieName:     c.CookieName,
		CookieSecure:   c.CookieSecure,
		GoogleClientID: c.GoogleClientID,
	}
	if err := jwt.normalize(); err != nil {
		return nil, err
	}
	return jwt, nil
}

// normalizeOrigins splits comma-joined entries and drops blanks
func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, origin := range strings.Split(entry, ",") {
			origin = strings.TrimRight(strings.TrimSpace(origin), "/")
			if origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}
