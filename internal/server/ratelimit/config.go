package ratelimit

import (
	"math"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// NewConfig builds a limiter configuration from a steady rate and burst size.
// The default bucket refills at rps and holds up to burst tokens.
func NewConfig(enabled bool, rps float64, burst int) *Config {
	if !enabled {
		return &Config{Enabled: false}
	}
	if burst < 1 {
		burst = 1
	}

	window := time.Second
	if rps > 0 {
		window = time.Duration(math.Round(float64(burst) / rps * float64(time.Second)))
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    burst,
		DefaultWindow:   window,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Token issuance verifies a third-party ID token on every call
		{Path: "/jwt", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Writes
		{Path: "/jobs", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/applications", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/applications/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: 20},

		// Reads use the default limit; health and metrics are unlimited
	}
}
