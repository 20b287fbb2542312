// Package front registers the client-facing API.
package front

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/config"
	"github.com/platewise/platewise-backend/internal/http/api/front/handlers"
	"github.com/platewise/platewise-backend/internal/meals"
	"github.com/platewise/platewise-backend/internal/models"
	"github.com/platewise/platewise-backend/internal/ratelimit"
	"github.com/platewise/platewise-backend/internal/security"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps carries the services behind the front routes. RateLimiter may be nil.
type Deps struct {
	DB          *gorm.DB
	JWT         config.JWTConfig
	Meals       *meals.Service
	Stats       handlers.ReportGenerator
	Quota       handlers.QuotaReader
	RateLimiter *ratelimit.Manager
	Location    *time.Location
}

// RegisterFrontRoutes registers front routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Get)

	planHandler := handlers.NewPlanFrontHandler(deps.DB)
	r.GET("/v1/plans", planHandler.List)

	authed := r.Group("/v1")
	authed.Use(userAuthMiddleware(deps.DB, deps.JWT))

	statsHandler := handlers.NewStatsFrontHandler(deps.Stats, deps.Location)
	authed.GET("/statistics", statsHandler.Get)

	mealHandler := handlers.NewMealFrontHandler(deps.Meals, deps.Location)
	authed.GET("/meals", mealHandler.List)
	authed.GET("/meals/date/:date", mealHandler.ByDate)
	authed.GET("/meals/:id", mealHandler.Get)
	authed.POST("/meals", mealHandler.Create)
	authed.PUT("/meals/:id", mealHandler.Update)
	authed.POST("/meals/:id/duplicate", mealHandler.Duplicate)
	authed.POST("/meals/:id/feedback", mealHandler.Feedback)
	authed.POST("/meals/:id/favorite", mealHandler.Favorite)

	quotaHandler := handlers.NewQuotaFrontHandler(deps.Quota)
	authed.GET("/quota", quotaHandler.Get)

	analysisHandler := handlers.NewAnalysisFrontHandler(deps.Meals)
	analysisGroup := authed.Group("/analysis")
	analysisGroup.Use(analysisRateLimitMiddleware(deps.DB, deps.RateLimiter))
	analysisGroup.POST("", analysisHandler.Analyze)
	analysisGroup.POST("/revise", analysisHandler.Revise)
}

func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).Select("id").First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		c.Set(handlers.UserIDKey, user.ID)
		c.Next()
	}
}

// analysisRateLimitMiddleware applies the burst limit of the user's plan to analysis calls.
func analysisRateLimitMiddleware(db *gorm.DB, limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		userID := handlers.GetUserID(c)
		ctx := c.Request.Context()

		decision, errResolve := ratelimit.ResolveLimit(ctx, db, userID, limiter.DefaultLimit())
		if errResolve != nil {
			log.WithError(errResolve).WithField("user_id", userID).Warn("front: resolve rate limit failed")
			c.Next()
			return
		}
		key := ratelimit.KeyForDecision(userID, decision)
		if key == "" {
			c.Next()
			return
		}

		result, errAllow := limiter.Allow(ctx, key, decision.Limit)
		if errAllow != nil {
			log.WithError(errAllow).WithField("user_id", userID).Warn("front: rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
		if !result.Allowed {
			resetSeconds := int(time.Until(result.Reset).Seconds())
			if resetSeconds < 0 {
				resetSeconds = 0
			}
			c.Header("Retry-After", strconv.Itoa(resetSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
