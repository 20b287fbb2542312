package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/platewise/platewise-backend/internal/config"
	"github.com/platewise/platewise-backend/internal/db"
	"github.com/platewise/platewise-backend/internal/models"
	"github.com/platewise/platewise-backend/internal/ratelimit"
	"github.com/platewise/platewise-backend/internal/security"
)

func TestBuildEngine_WithoutOptionalServices(t *testing.T) {
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	user := models.User{Email: "a@example.com", PlanTier: "FREE", AIRequestsResetAt: time.Now().UTC()}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	jwtCfg := config.JWTConfig{Secret: "app-secret", Expiry: time.Hour}
	limiter := ratelimit.NewManager(nil, nil, nil)
	engine, err := buildEngine(context.Background(), conn, config.ServiceConfig{}, jwtCfg, limiter)
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}

	health := httptest.NewRecorder()
	engine.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", health.Code)
	}
	if health.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	preflight := httptest.NewRecorder()
	engine.ServeHTTP(preflight, httptest.NewRequest(http.MethodOptions, "/v1/meals", nil))
	if preflight.Code != http.StatusNoContent || preflight.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d %v", preflight.Code, preflight.Header())
	}

	token, _ := security.SignUserToken(jwtCfg.Secret, user.ID, time.Hour, time.Now())
	req := httptest.NewRequest(http.MethodPost, "/v1/analysis", bytes.NewBufferString(`{"image":"aGVsbG8="}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 without analysis provider, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBuildGateway(t *testing.T) {
	gateway, err := buildGateway(config.AnalysisConfig{})
	if err != nil || gateway != nil {
		t.Fatalf("expected no gateway without api key, got %v %v", gateway, err)
	}
	gateway, err = buildGateway(config.AnalysisConfig{APIKey: "k", Model: "gemini-2.5-flash"})
	if err != nil || gateway == nil {
		t.Fatalf("expected gateway, got %v %v", gateway, err)
	}
}

func TestBuildUploader_Disabled(t *testing.T) {
	uploader, err := buildUploader(context.Background(), config.ImageStoreConfig{})
	if err != nil || uploader != nil {
		t.Fatalf("expected no uploader without bucket, got %v %v", uploader, err)
	}
}
