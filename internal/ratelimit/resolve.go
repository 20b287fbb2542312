package ratelimit

import (
	"context"
	"errors"
	"strings"

	"github.com/platewise/platewise-backend/internal/models"

	"gorm.io/gorm"
)

// ResolveLimit returns the analysis limit per window for the user.
// The enabled plan matching the user's tier wins; otherwise defaultLimit applies.
// Unknown users are not limited here, the quota ledger rejects them.
func ResolveLimit(ctx context.Context, db *gorm.DB, userID uint64, defaultLimit int) (Decision, error) {
	if db == nil || userID == 0 {
		return Decision{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tier, errTier := loadUserTier(ctx, db, userID)
	if errTier != nil {
		return Decision{}, errTier
	}
	if tier == "" {
		return Decision{}, nil
	}

	planLimit, errPlan := loadPlanRateLimit(ctx, db, tier)
	if errPlan != nil {
		return Decision{}, errPlan
	}
	if planLimit > 0 {
		return Decision{Limit: planLimit, Scope: ScopeUser, Tier: tier, Source: "plan"}, nil
	}
	if defaultLimit > 0 {
		return Decision{Limit: defaultLimit, Scope: ScopeUser, Tier: tier, Source: "default"}, nil
	}
	return Decision{}, nil
}

func loadUserTier(ctx context.Context, db *gorm.DB, userID uint64) (string, error) {
	var user models.User
	if errFind := db.WithContext(ctx).
		Model(&models.User{}).
		Select("plan_tier").
		Where("id = ?", userID).
		Take(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", errFind
	}
	return strings.ToUpper(strings.TrimSpace(user.PlanTier)), nil
}

func loadPlanRateLimit(ctx context.Context, db *gorm.DB, tier string) (int, error) {
	var plan models.Plan
	if errFind := db.WithContext(ctx).
		Model(&models.Plan{}).
		Select("rate_limit").
		Where("tier = ? AND is_enabled = ?", tier, true).
		Take(&plan).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errFind
	}
	return plan.RateLimit, nil
}
