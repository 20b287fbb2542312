package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDotEnvPath   = "DOTENV_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
)

// defaultJWTExpiry is used when neither the file nor the env sets a positive expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

var (
	// ErrMissingDatabaseDSN indicates neither the env nor the config file names a database.
	ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn`, `database.dsn` or " + EnvDBConnection + ")")
	// ErrMissingJWTSecret indicates bearer tokens cannot be verified.
	ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` or " + EnvJWTSecret + ")")
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables, after applying a .env file when present.
func LoadFromEnv() (AppConfig, error) {
	if errDotEnv := LoadDotEnv(os.Getenv(EnvDotEnvPath)); errDotEnv != nil {
		return AppConfig{}, errDotEnv
	}
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath makes p absolute, defaulting to ./config.yaml.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// JWTConfig holds the bearer token secret and expiry.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// connectionFile is the part of config.yaml that locates the database and token secret.
// `database-dsn` is the flat spelling and wins over `database.dsn`.
type connectionFile struct {
	DatabaseDSN string `yaml:"database-dsn"`
	Database    struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	JWT JWTConfig `yaml:"jwt"`
}

// readConnectionFile parses configPath. A missing file yields an empty config so
// deployments can run purely from the environment.
func readConnectionFile(configPath string) (connectionFile, error) {
	var out connectionFile
	data, errRead := os.ReadFile(configPath)
	if errors.Is(errRead, fs.ErrNotExist) {
		return out, nil
	}
	if errRead != nil {
		return out, fmt.Errorf("read config file: %w", errRead)
	}
	if errUnmarshal := yaml.Unmarshal(data, &out); errUnmarshal != nil {
		return out, fmt.Errorf("parse config file: %w", errUnmarshal)
	}
	return out, nil
}

// LoadDatabaseDSN resolves the DSN from DB_CONNECTION, then the config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}
	file, err := readConnectionFile(configPath)
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{file.DatabaseDSN, file.Database.DSN} {
		if dsn := strings.TrimSpace(candidate); dsn != "" {
			return dsn, nil
		}
	}
	return "", ErrMissingDatabaseDSN
}

// LoadJWTConfig resolves token settings; JWT_SECRET and JWT_EXPIRY override the file.
// The config is returned alongside ErrMissingJWTSecret so callers can still read the expiry.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	file, err := readConnectionFile(configPath)
	if err != nil {
		return JWTConfig{}, err
	}
	result := file.JWT
	result.Secret = strings.TrimSpace(result.Secret)

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}
	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	if result.Secret == "" {
		return result, ErrMissingJWTSecret
	}
	return result, nil
}
