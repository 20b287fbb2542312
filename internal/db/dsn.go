package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// DSNInfo describes a connection string without exposing its password.
type DSNInfo struct {
	Type        string `json:"database_type"`
	Host        string `json:"database_host,omitempty"`
	Port        int    `json:"database_port,omitempty"`
	User        string `json:"database_user,omitempty"`
	Name        string `json:"database_name,omitempty"`
	Path        string `json:"database_path,omitempty"`
	PasswordSet bool   `json:"database_password_set"`
}

// DescribeDSN parses a `file:` SQLite DSN or any PostgreSQL DSN accepted by pgx.
func DescribeDSN(dsn string) (DSNInfo, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return DSNInfo{}, fmt.Errorf("empty dsn")
	}

	lowered := strings.ToLower(trimmed)
	if strings.HasPrefix(lowered, "file:") {
		pathPart := trimmed[len("file:"):]
		pathPart, _, _ = strings.Cut(pathPart, "?")
		return DSNInfo{
			Type: DialectSQLite,
			Path: strings.TrimSpace(pathPart),
		}, nil
	}

	cfg, errParse := pgconn.ParseConfig(trimmed)
	if errParse != nil {
		return DSNInfo{}, fmt.Errorf("parse dsn: %w", errParse)
	}
	return DSNInfo{
		Type:        DialectPostgres,
		Host:        cfg.Host,
		Port:        int(cfg.Port),
		User:        cfg.User,
		Name:        cfg.Database,
		PasswordSet: cfg.Password != "",
	}, nil
}
