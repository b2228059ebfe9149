// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds everything the server needs to run. Optional collaborators
// (database, redis, object storage) fall back to in-process defaults when
// their settings are absent.
type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR,default=:8080"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS,default=*"`
	RateLimitRPS   int           `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST,default=40"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s"`

	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=168h"`

	// AdminToken guards the administrative routes. Leaving it unset is a
	// configuration error surfaced as 500 on those routes, not a 401.
	AdminToken string `env:"ADMIN_TOKEN"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	StorageURL    string `env:"STORAGE_URL"`
	StorageKey    string `env:"STORAGE_SERVICE_KEY"`
	StorageBucket string `env:"STORAGE_BUCKET,default=media"`

	MediaAPIKey      string        `env:"MEDIA_API_KEY"`
	MediaAPISecret   string        `env:"MEDIA_API_SECRET"`
	MediaTokenTTL    time.Duration `env:"MEDIA_TOKEN_TTL,default=6h"`
	StreamingEnabled bool          `env:"STREAMING_ENABLED,default=true"`

	CleanupSchedule  string        `env:"CLEANUP_SCHEDULE"`
	CleanupIdleAfter time.Duration `env:"CLEANUP_IDLE_AFTER,default=4h"`
}

// Load decodes configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
