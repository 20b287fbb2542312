package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/platewise/platewise-backend/internal/analysis"
	"github.com/platewise/platewise-backend/internal/config"
	"github.com/platewise/platewise-backend/internal/db"
	"github.com/platewise/platewise-backend/internal/http/api/front"
	"github.com/platewise/platewise-backend/internal/imagestore"
	"github.com/platewise/platewise-backend/internal/logging"
	"github.com/platewise/platewise-backend/internal/meals"
	"github.com/platewise/platewise-backend/internal/quota"
	"github.com/platewise/platewise-backend/internal/ratelimit"
	"github.com/platewise/platewise-backend/internal/stats"
	"github.com/platewise/platewise-backend/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn.WithContext(ctx))
}

// RunServer boots the API server and blocks until ctx is cancelled.
// A positive port overrides the configured one.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	serviceCfg, err := config.LoadServiceConfig(configPath)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(serviceCfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()
	if port > 0 {
		serviceCfg.Server.Port = port
	}

	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	if info, errDescribe := db.DescribeDSN(dsn); errDescribe == nil {
		log.WithFields(log.Fields{"type": info.Type, "host": info.Host, "name": info.Name, "path": info.Path}).Info("connecting to database")
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtConfig, err := config.LoadJWTConfig(configPath)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsFromConfig(serviceCfg.RateLimit)), nil, nil)
	defer func() { _ = limiter.Close() }()

	engine, err := buildEngine(ctx, conn, serviceCfg, jwtConfig, limiter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(serviceCfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("starting server on %s with config=%s", srv.Addr, configPath)
	if errListen := srv.ListenAndServe(); errListen != nil && errListen != http.ErrServerClosed {
		return errListen
	}
	return nil
}

// buildEngine wires stores and services into a gin engine.
func buildEngine(ctx context.Context, conn *gorm.DB, cfg config.ServiceConfig, jwtCfg config.JWTConfig, limiter *ratelimit.Manager) (*gin.Engine, error) {
	mealStore := store.NewGormMealStore(conn)
	ledger := quota.NewLedger(conn, nil)

	gateway, err := buildGateway(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	uploader, err := buildUploader(ctx, cfg.ImageStore)
	if err != nil {
		return nil, err
	}

	mealService := meals.NewService(meals.Deps{
		Meals:    mealStore,
		Gateway:  gateway,
		Quota:    ledger,
		Uploader: uploader,
	})
	statsService := stats.NewService(mealStore, nil, time.Local)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.RequestIDMiddleware())
	engine.Use(logging.GinMiddleware())
	engine.Use(corsMiddleware())

	front.RegisterFrontRoutes(engine, front.Deps{
		DB:          conn,
		JWT:         jwtCfg,
		Meals:       mealService,
		Stats:       statsService,
		Quota:       ledger,
		RateLimiter: limiter,
		Location:    time.Local,
	})
	return engine, nil
}

// buildGateway returns nil when no API key is configured; analysis routes then answer 502.
func buildGateway(cfg config.AnalysisConfig) (analysis.Gateway, error) {
	if cfg.APIKey == "" {
		log.Warn("analysis api key not set, meal photo analysis disabled")
		return nil, nil
	}
	client, err := analysis.NewGeminiClient(analysis.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	log.Infof("meal analysis enabled with model %s", client.Model())
	return client, nil
}

func buildUploader(ctx context.Context, cfg config.ImageStoreConfig) (imagestore.Uploader, error) {
	if !cfg.Enabled() {
		log.Info("image store bucket not set, meal photos will not be stored")
		return nil, nil
	}
	s3Store, err := imagestore.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3Store, nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
