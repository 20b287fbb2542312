// Package quota tracks per-user AI analysis requests against the plan tier limit.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/models"
	"github.com/platewise/platewise-backend/internal/settings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Window is the length of one quota period.
const Window = 24 * time.Hour

// ErrUserNotFound is returned when the ledger owner does not exist.
var ErrUserNotFound = apperr.NotFound("user not found")

// builtinLimits backs tiers missing from the plans table.
var builtinLimits = map[string]int{
	settings.PlanTierFree:    settings.FreeDailyAIRequests,
	settings.PlanTierBasic:   settings.BasicDailyAIRequests,
	settings.PlanTierPremium: settings.PremiumDailyAIRequests,
}

// Status describes a user's current quota window.
type Status struct {
	Tier      string    `json:"tier"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"` // End of the current window.
}

// Ledger consumes analysis requests from the users table.
type Ledger struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewLedger constructs a Ledger. A nil nowFn uses time.Now.
func NewLedger(conn *gorm.DB, nowFn func() time.Time) *Ledger {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Ledger{db: conn, nowFn: nowFn}
}

// Consume takes one request from the user's window.
// A stale window is reset first. The increment only applies while the count is below the limit,
// so concurrent callers can never push the count past it.
func (l *Ledger) Consume(ctx context.Context, userID uint64) (Status, error) {
	if l == nil || l.db == nil {
		return Status{}, fmt.Errorf("quota ledger: not initialized")
	}
	user, errLoad := l.loadUser(ctx, userID)
	if errLoad != nil {
		return Status{}, errLoad
	}
	limit, errLimit := l.limitFor(ctx, user.PlanTier)
	if errLimit != nil {
		return Status{}, errLimit
	}

	now := l.nowFn().UTC()
	if errReset := l.resetIfStale(ctx, userID, now); errReset != nil {
		return Status{}, errReset
	}

	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND ai_requests_count < ?", userID, limit).
		Update("ai_requests_count", gorm.Expr("ai_requests_count + 1"))
	if res.Error != nil {
		log.WithError(res.Error).WithField("user_id", userID).Error("quota: increment failed")
		return Status{}, apperr.Upstream("failed to record AI request", res.Error)
	}
	if res.RowsAffected == 0 {
		return Status{}, apperr.QuotaExceeded(limit)
	}

	updated, errReload := l.loadUser(ctx, userID)
	if errReload != nil {
		return Status{}, errReload
	}
	return buildStatus(updated, limit), nil
}

// Status reports the user's window without consuming from it.
func (l *Ledger) Status(ctx context.Context, userID uint64) (Status, error) {
	if l == nil || l.db == nil {
		return Status{}, fmt.Errorf("quota ledger: not initialized")
	}
	user, errLoad := l.loadUser(ctx, userID)
	if errLoad != nil {
		return Status{}, errLoad
	}
	limit, errLimit := l.limitFor(ctx, user.PlanTier)
	if errLimit != nil {
		return Status{}, errLimit
	}
	now := l.nowFn().UTC()
	if now.Sub(user.AIRequestsResetAt) >= Window {
		user.AIRequestsCount = 0
		user.AIRequestsResetAt = now
	}
	return buildStatus(user, limit), nil
}

// resetIfStale zeroes the count when the window started at least 24h before now.
// The threshold predicate keeps a concurrent second reset from firing.
func (l *Ledger) resetIfStale(ctx context.Context, userID uint64, now time.Time) error {
	threshold := now.Add(-Window)
	if errReset := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND ai_requests_reset_at <= ?", userID, threshold).
		Updates(map[string]any{
			"ai_requests_count":    0,
			"ai_requests_reset_at": now,
		}).Error; errReset != nil {
		log.WithError(errReset).WithField("user_id", userID).Error("quota: reset failed")
		return apperr.Upstream("failed to record AI request", errReset)
	}
	return nil
}

func (l *Ledger) loadUser(ctx context.Context, userID uint64) (models.User, error) {
	var user models.User
	if errFind := l.db.WithContext(ctx).
		Select("id", "plan_tier", "ai_requests_count", "ai_requests_reset_at").
		Where("id = ?", userID).
		Take(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		log.WithError(errFind).WithField("user_id", userID).Error("quota: load user failed")
		return models.User{}, apperr.Upstream("failed to load quota", errFind)
	}
	user.AIRequestsResetAt = user.AIRequestsResetAt.UTC()
	return user, nil
}

// limitFor resolves the tier's daily limit from enabled plans, then the built-in table,
// then the FREE limit.
func (l *Ledger) limitFor(ctx context.Context, tier string) (int, error) {
	tier = strings.ToUpper(strings.TrimSpace(tier))
	var plan models.Plan
	errFind := l.db.WithContext(ctx).
		Select("daily_ai_requests").
		Where("tier = ? AND is_enabled = ?", tier, true).
		Take(&plan).Error
	switch {
	case errFind == nil:
		return plan.DailyAIRequests, nil
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		return LimitForTier(tier), nil
	default:
		log.WithError(errFind).WithField("tier", tier).Error("quota: load plan failed")
		return 0, apperr.Upstream("failed to load quota", errFind)
	}
}

// LimitForTier returns the built-in daily limit; unknown tiers get the FREE limit.
func LimitForTier(tier string) int {
	if limit, ok := builtinLimits[strings.ToUpper(strings.TrimSpace(tier))]; ok {
		return limit
	}
	return settings.FreeDailyAIRequests
}

func buildStatus(user models.User, limit int) Status {
	remaining := limit - user.AIRequestsCount
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Tier:      user.PlanTier,
		Used:      user.AIRequestsCount,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   user.AIRequestsResetAt.Add(Window),
	}
}
