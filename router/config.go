package router

import "time"

// Config holds the tunables of the default middleware chain.
type Config struct {
	// Timeout bounds the time a request may spend in the handler. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`
	CORS    CORSConfig    `yaml:"cors"`
	// QuietdownRoutes are paths the request logger skips, e.g. probes.
	QuietdownRoutes []string `yaml:"quietdownRoutes"`
	// HideHeaders are redacted in request logs.
	HideHeaders []string        `yaml:"hideHeaders"`
	RateLimit   RateLimitConfig `yaml:"rateLimit"`
}

// CORSConfig configures cross-origin access. CORS headers are only emitted when
// at least one origin is listed; "*" allows any origin.
type CORSConfig struct {
	Origins          []string `yaml:"origins"`
	Methods          []string `yaml:"methods"`
	Headers          []string `yaml:"headers"`
	AllowCredentials bool     `yaml:"allowCredentials"`
}

// RateLimitConfig configures the per-client token bucket. A zero
// RequestsPerSecond disables rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
	// IdleTTL is how long an unseen client keeps its bucket.
	IdleTTL time.Duration `yaml:"idleTTL"`
}

func (c RateLimitConfig) enabled() bool {
	return c.RequestsPerSecond > 0
}
