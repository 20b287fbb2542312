package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/db"
	"github.com/platewise/platewise-backend/internal/models"
	"github.com/platewise/platewise-backend/internal/settings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMealNotFound is returned when an ownership-scoped lookup misses.
var ErrMealNotFound = apperr.NotFound("meal not found")

// nutritionColumns lists the columns UpdateNutrition may write.
var nutritionColumns = map[string]struct{}{
	"name":        {},
	"calories":    {},
	"protein_g":   {},
	"carbs_g":     {},
	"fats_g":      {},
	"fiber_g":     {},
	"sugar_g":     {},
	"sodium_mg":   {},
	"confidence":  {},
	"ingredients": {},
	"image_url":   {},
	"upload_time": {},
}

// MealFilter narrows a recent meals listing.
type MealFilter struct {
	Limit         int    // Maximum rows, defaults to settings.DefaultRecentMealsLimit.
	Query         string // Case-insensitive name substring.
	Ingredient    string // Exact ingredient match.
	FavoritesOnly bool   // Only meals marked favorite.
}

// GormMealStore persists meal records via GORM. Every operation is scoped to the owning user.
type GormMealStore struct {
	db *gorm.DB
}

// NewGormMealStore constructs a GormMealStore.
func NewGormMealStore(conn *gorm.DB) *GormMealStore {
	return &GormMealStore{db: conn}
}

// ListInRange returns the user's meals created within [from, to], oldest first.
func (s *GormMealStore) ListInRange(ctx context.Context, userID uint64, from, to time.Time) ([]models.Meal, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm meal store: not initialized")
	}
	var rows []models.Meal
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, from.UTC(), to.UTC()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("gorm meal store: list range: %w", errFind)
	}
	return rows, nil
}

// ListOnDate returns the user's meals logged on the calendar date of day, in day's location.
func (s *GormMealStore) ListOnDate(ctx context.Context, userID uint64, day time.Time) ([]models.Meal, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm meal store: not initialized")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var rows []models.Meal
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND upload_time >= ? AND upload_time < ?", userID, start.UTC(), end.UTC()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("gorm meal store: list date: %w", errFind)
	}
	return rows, nil
}

// FindByID loads one meal owned by userID.
func (s *GormMealStore) FindByID(ctx context.Context, userID, mealID uint64) (models.Meal, error) {
	if s == nil || s.db == nil {
		return models.Meal{}, fmt.Errorf("gorm meal store: not initialized")
	}
	var meal models.Meal
	if errFind := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&meal).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Meal{}, ErrMealNotFound
		}
		return models.Meal{}, fmt.Errorf("gorm meal store: find: %w", errFind)
	}
	return meal, nil
}

// ListRecent returns the user's most recently logged meals, newest first.
func (s *GormMealStore) ListRecent(ctx context.Context, userID uint64, filter MealFilter) ([]models.Meal, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm meal store: not initialized")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = settings.DefaultRecentMealsLimit
	}

	q := s.db.WithContext(ctx).Model(&models.Meal{}).Where("user_id = ?", userID)
	if query := strings.TrimSpace(filter.Query); query != "" {
		q = q.Where(db.CaseInsensitiveLikeExpr(s.db, "name"), db.NormalizeLikePattern(s.db, "%"+query+"%"))
	}
	if ingredient := strings.TrimSpace(filter.Ingredient); ingredient != "" {
		q = q.Where(db.JSONArrayContainsExpr(s.db, "ingredients"), db.JSONArrayContainsValue(s.db, ingredient))
	}
	if filter.FavoritesOnly {
		q = q.Where(db.JSONExtractTextExpr(s.db, "attributes", "isFavorite")+" = ?", db.JSONTrueValue(s.db))
	}

	var rows []models.Meal
	if errFind := q.Order("upload_time DESC, id DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("gorm meal store: list recent: %w", errFind)
	}
	return rows, nil
}

// Create inserts a meal. UploadTime defaults to now.
func (s *GormMealStore) Create(ctx context.Context, meal *models.Meal) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm meal store: not initialized")
	}
	if meal == nil {
		return fmt.Errorf("gorm meal store: meal is nil")
	}
	if meal.UserID == 0 {
		return fmt.Errorf("gorm meal store: missing user id")
	}
	now := time.Now().UTC()
	if meal.UploadTime.IsZero() {
		meal.UploadTime = now
	}
	meal.UploadTime = meal.UploadTime.UTC()
	if !meal.CreatedAt.IsZero() {
		meal.CreatedAt = meal.CreatedAt.UTC()
	}
	if errCreate := s.db.WithContext(ctx).Create(meal).Error; errCreate != nil {
		return fmt.Errorf("gorm meal store: create: %w", errCreate)
	}
	return nil
}

// UpdateNutrition writes nutrition and descriptive columns of an owned meal.
func (s *GormMealStore) UpdateNutrition(ctx context.Context, userID, mealID uint64, updates map[string]any) (models.Meal, error) {
	if s == nil || s.db == nil {
		return models.Meal{}, fmt.Errorf("gorm meal store: not initialized")
	}
	values := make(map[string]any, len(updates)+1)
	for column, value := range updates {
		if _, ok := nutritionColumns[column]; !ok {
			return models.Meal{}, fmt.Errorf("gorm meal store: column %q is not updatable", column)
		}
		values[column] = value
	}
	if len(values) == 0 {
		return s.FindByID(ctx, userID, mealID)
	}
	values["updated_at"] = time.Now().UTC()

	res := s.db.WithContext(ctx).
		Model(&models.Meal{}).
		Where("id = ? AND user_id = ?", mealID, userID).
		Updates(values)
	if res.Error != nil {
		return models.Meal{}, fmt.Errorf("gorm meal store: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Meal{}, ErrMealNotFound
	}
	return s.FindByID(ctx, userID, mealID)
}

// UpdateAttributes applies mutate to the meal's attributes inside a transaction.
func (s *GormMealStore) UpdateAttributes(ctx context.Context, userID, mealID uint64, mutate func(*models.MealAttributes)) (models.Meal, error) {
	if s == nil || s.db == nil {
		return models.Meal{}, fmt.Errorf("gorm meal store: not initialized")
	}
	if mutate == nil {
		return s.FindByID(ctx, userID, mealID)
	}

	var updated models.Meal
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ? AND user_id = ?", mealID, userID)
		if !db.IsSQLite(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var meal models.Meal
		if errFind := q.First(&meal).Error; errFind != nil {
			return errFind
		}

		attrs := meal.Attributes.Data()
		mutate(&attrs)
		meal.Attributes = datatypes.NewJSONType(attrs)
		meal.UpdatedAt = time.Now().UTC()

		if errSave := tx.Model(&models.Meal{}).
			Where("id = ?", meal.ID).
			Updates(map[string]any{
				"attributes": meal.Attributes,
				"updated_at": meal.UpdatedAt,
			}).Error; errSave != nil {
			return errSave
		}
		updated = meal
		return nil
	})
	if errTx != nil {
		if errors.Is(errTx, gorm.ErrRecordNotFound) {
			return models.Meal{}, ErrMealNotFound
		}
		return models.Meal{}, fmt.Errorf("gorm meal store: update attributes: %w", errTx)
	}
	return updated, nil
}
