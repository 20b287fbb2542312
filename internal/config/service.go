package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides for service settings.
const (
	EnvPort               = "PORT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFile            = "LOG_FILE"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvGeminiModel        = "GEMINI_MODEL"
	EnvGeminiBaseURL      = "GEMINI_BASE_URL"
	EnvS3Bucket           = "S3_BUCKET"
	EnvS3Region           = "S3_REGION"
	EnvAWSRegion          = "AWS_REGION"
	EnvImagePublicBaseURL = "CLOUDFRONT_URL"
	EnvRedisAddr          = "REDIS_ADDR"
	EnvRedisPassword      = "REDIS_PASSWORD"
)

const (
	defaultPort            = 8318
	defaultAnalysisModel   = "gemini-2.5-flash"
	defaultAnalysisBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultAnalysisTimeout = 30 * time.Second
	defaultLogLevel        = "info"
	defaultImagePrefix     = "meal-photos"
)

// ServiceConfig aggregates the runtime settings of the API server.
type ServiceConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	ImageStore ImageStoreConfig `yaml:"image-store"`
	RateLimit  RateLimitConfig  `yaml:"rate-limit"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig controls log level, format and optional file rotation.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// AnalysisConfig holds the meal photo analysis provider settings.
type AnalysisConfig struct {
	APIKey  string        `yaml:"api-key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base-url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ImageStoreConfig holds S3 settings for meal photos. An empty bucket disables uploads.
type ImageStoreConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Prefix        string `yaml:"prefix"`
	PublicBaseURL string `yaml:"public-base-url"`
}

// Enabled reports whether photo uploads are configured.
func (c ImageStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// RateLimitConfig holds burst limiter settings for analysis requests.
type RateLimitConfig struct {
	Default       int           `yaml:"default"` // Requests per window for tiers without a plan limit, 0 disables.
	Window        time.Duration `yaml:"window"`  // Fixed window length, 1s when unset.
	RedisEnabled  bool          `yaml:"redis-enabled"`
	RedisAddr     string        `yaml:"redis-addr"`
	RedisPassword string        `yaml:"redis-password"`
	RedisDB       int           `yaml:"redis-db"`
	RedisPrefix   string        `yaml:"redis-prefix"`
}

// LoadServiceConfig reads service settings from the YAML file and applies env overrides.
// A missing file yields defaults plus environment values.
func LoadServiceConfig(configPath string) (ServiceConfig, error) {
	var cfg ServiceConfig

	data, errRead := os.ReadFile(configPath)
	if errRead != nil && !errors.Is(errRead, fs.ErrNotExist) {
		return ServiceConfig{}, fmt.Errorf("read config file: %w", errRead)
	}
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return ServiceConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	}

	applyServiceEnv(&cfg)
	applyServiceDefaults(&cfg)
	return cfg, nil
}

func applyServiceEnv(cfg *ServiceConfig) {
	if raw := strings.TrimSpace(os.Getenv(EnvPort)); raw != "" {
		if port, errParse := strconv.Atoi(raw); errParse == nil {
			cfg.Server.Port = port
		}
	}
	overrideString(&cfg.Logging.Level, EnvLogLevel)
	overrideString(&cfg.Logging.File, EnvLogFile)
	overrideString(&cfg.Analysis.APIKey, EnvGeminiAPIKey)
	overrideString(&cfg.Analysis.Model, EnvGeminiModel)
	overrideString(&cfg.Analysis.BaseURL, EnvGeminiBaseURL)
	overrideString(&cfg.ImageStore.Bucket, EnvS3Bucket)
	overrideString(&cfg.ImageStore.Region, EnvAWSRegion)
	overrideString(&cfg.ImageStore.Region, EnvS3Region)
	overrideString(&cfg.ImageStore.PublicBaseURL, EnvImagePublicBaseURL)
	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		cfg.RateLimit.RedisAddr = addr
		cfg.RateLimit.RedisEnabled = true
	}
	overrideString(&cfg.RateLimit.RedisPassword, EnvRedisPassword)
}

func applyServiceDefaults(cfg *ServiceConfig) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = defaultPort
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(cfg.Analysis.Model) == "" {
		cfg.Analysis.Model = defaultAnalysisModel
	}
	cfg.Analysis.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Analysis.BaseURL), "/")
	if cfg.Analysis.BaseURL == "" {
		cfg.Analysis.BaseURL = defaultAnalysisBaseURL
	}
	if cfg.Analysis.Timeout <= 0 {
		cfg.Analysis.Timeout = defaultAnalysisTimeout
	}
	if strings.TrimSpace(cfg.ImageStore.Prefix) == "" {
		cfg.ImageStore.Prefix = defaultImagePrefix
	}
	cfg.ImageStore.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.ImageStore.PublicBaseURL), "/")
	if cfg.RateLimit.Default < 0 {
		cfg.RateLimit.Default = 0
	}
	if cfg.RateLimit.RedisDB < 0 {
		cfg.RateLimit.RedisDB = 0
	}
	if cfg.RateLimit.Window < 0 {
		cfg.RateLimit.Window = 0
	}
}

func overrideString(target *string, envKey string) {
	if value := strings.TrimSpace(os.Getenv(envKey)); value != "" {
		*target = value
	}
}
