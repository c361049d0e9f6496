package config

import (
	"os"
	"strconv"
	"time"
)

// CacheConfig defines settings for the barcode lookup cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  TTL defines the lifetime of cache entries; products never
// change after creation, so the TTL mainly bounds memory use.  Prefix
// namespaces the keys and MaxBodyBytes caps the size of cached responses.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getenv("CACHE_ENABLED", "true") == "true",
		TTL:          parseDur(getenv("CACHE_TTL", "5m")),
		Prefix:       getenv("CACHE_PREFIX", "lookup"),
		MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}

// Helper functions shared with config.go and ratelimit.go.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
