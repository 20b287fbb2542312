package ratelimit

import (
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/config"
	"github.com/platewise/platewise-backend/internal/settings"
)

// SettingsConfig captures the limiter backend settings.
type SettingsConfig struct {
	Limit         int
	Window        time.Duration
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsFromConfig normalizes the rate-limit section of the service config.
func SettingsFromConfig(cfg config.RateLimitConfig) SettingsConfig {
	out := SettingsConfig{
		Limit:         cfg.Default,
		Window:        cfg.Window,
		RedisEnabled:  cfg.RedisEnabled,
		RedisAddr:     strings.TrimSpace(cfg.RedisAddr),
		RedisPassword: strings.TrimSpace(cfg.RedisPassword),
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   strings.TrimSpace(cfg.RedisPrefix),
	}
	if out.RedisPrefix == "" {
		out.RedisPrefix = settings.DefaultRateLimitRedisPrefix
	}
	if out.RedisDB < 0 {
		out.RedisDB = 0
	}
	if out.Limit < 0 {
		out.Limit = 0
	}
	if out.Window <= 0 {
		out.Window = settings.DefaultRateLimitWindow
	}
	if out.RedisAddr == "" {
		out.RedisEnabled = false
	}
	return out
}

// StaticSettings returns a provider that always yields cfg.
func StaticSettings(cfg SettingsConfig) SettingsProvider {
	return func() SettingsConfig { return cfg }
}

func defaultSettings() SettingsConfig {
	return SettingsConfig{
		Limit:       settings.DefaultRateLimit,
		Window:      settings.DefaultRateLimitWindow,
		RedisPrefix: settings.DefaultRateLimitRedisPrefix,
	}
}
