package config

import (
	"time"
)

// RateLimitConfig controls the fixed-window request limiter.  Limit is the
// number of requests allowed per Window for a single key.  Prefix
// namespaces the Redis counters.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
	Prefix  string
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig, clamping nonsensical values to usable ones.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Limit:   atoi(getenv("RATE_LIMIT_LIMIT", "60")),
		Window:  parseDur(getenv("RATE_LIMIT_WINDOW", "1m")),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}
