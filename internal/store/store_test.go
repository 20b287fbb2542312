package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/db"
	"github.com/platewise/platewise-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "meals.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func ptr(v float64) *float64 { return &v }

func TestGormMealStore_ListInRangeScopesAndOrders(t *testing.T) {
	conn := openTestDB(t)
	s := NewGormMealStore(conn)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	meals := []models.Meal{
		{UserID: 1, Name: "late", Calories: ptr(300), CreatedAt: base.Add(2 * time.Hour)},
		{UserID: 1, Name: "early", Calories: ptr(200), CreatedAt: base},
		{UserID: 1, Name: "outside", Calories: ptr(100), CreatedAt: base.Add(-48 * time.Hour)},
		{UserID: 2, Name: "other user", Calories: ptr(900), CreatedAt: base.Add(time.Hour)},
	}
	for i := range meals {
		if errCreate := s.Create(ctx, &meals[i]); errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}

	rows, err := s.ListInRange(ctx, 1, base.Add(-time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ListInRange: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "early" || rows[1].Name != "late" {
		t.Fatalf("expected ascending order, got %q then %q", rows[0].Name, rows[1].Name)
	}
	if rows[0].Calories == nil || *rows[0].Calories != 200 {
		t.Fatalf("expected calories=200, got %v", rows[0].Calories)
	}
}

func TestGormMealStore_FindByIDOwnership(t *testing.T) {
	conn := openTestDB(t)
	s := NewGormMealStore(conn)
	ctx := context.Background()

	meal := models.Meal{UserID: 7, Name: "oats"}
	if errCreate := s.Create(ctx, &meal); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if meal.UploadTime.IsZero() {
		t.Fatalf("expected upload time to default to now")
	}

	if _, err := s.FindByID(ctx, 8, meal.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	got, err := s.FindByID(ctx, 7, meal.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Name != "oats" {
		t.Fatalf("expected name=oats, got %q", got.Name)
	}
	if got.Attributes.Data().IsFavorite {
		t.Fatalf("expected favorite to default to false")
	}
}

func TestGormMealStore_ListRecentFilters(t *testing.T) {
	conn := openTestDB(t)
	s := NewGormMealStore(conn)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	meals := []models.Meal{
		{UserID: 1, Name: "Chicken Salad", UploadTime: base, Ingredients: datatypes.NewJSONSlice([]string{"chicken", "lettuce"})},
		{UserID: 1, Name: "Rice Bowl", UploadTime: base.Add(time.Hour), Ingredients: datatypes.NewJSONSlice([]string{"rice", "chicken"}),
			Attributes: datatypes.NewJSONType(models.MealAttributes{IsFavorite: true})},
		{UserID: 1, Name: "Toast", UploadTime: base.Add(2 * time.Hour), Ingredients: datatypes.NewJSONSlice([]string{"bread"})},
	}
	for i := range meals {
		if errCreate := s.Create(ctx, &meals[i]); errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}

	recent, err := s.ListRecent(ctx, 1, MealFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 || recent[0].Name != "Toast" || recent[1].Name != "Rice Bowl" {
		t.Fatalf("unexpected recent order: %+v", recent)
	}

	byName, err := s.ListRecent(ctx, 1, MealFilter{Query: "salad"})
	if err != nil {
		t.Fatalf("ListRecent query: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Chicken Salad" {
		t.Fatalf("expected case-insensitive name match, got %+v", byName)
	}

	byIngredient, err := s.ListRecent(ctx, 1, MealFilter{Ingredient: "chicken"})
	if err != nil {
		t.Fatalf("ListRecent ingredient: %v", err)
	}
	if len(byIngredient) != 2 {
		t.Fatalf("expected 2 chicken meals, got %d", len(byIngredient))
	}

	favorites, err := s.ListRecent(ctx, 1, MealFilter{FavoritesOnly: true})
	if err != nil {
		t.Fatalf("ListRecent favorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].Name != "Rice Bowl" {
		t.Fatalf("expected only the favorite meal, got %+v", favorites)
	}
}

func TestGormMealStore_ListOnDate(t *testing.T) {
	conn := openTestDB(t)
	s := NewGormMealStore(conn)
	ctx := context.Background()
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	for _, upload := range []time.Time{day.Add(7 * time.Hour), day.Add(23 * time.Hour), day.Add(25 * time.Hour)} {
		meal := models.Meal{UserID: 3, Name: upload.Format(time.RFC3339), UploadTime: upload}
		if errCreate := s.Create(ctx, &meal); errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}

	rows, err := s.ListOnDate(ctx, 3, day.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("ListOnDate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 meals on date, got %d", len(rows))
	}
}

func TestGormMealStore_UpdateNutritionAndAttributes(t *testing.T) {
	conn := openTestDB(t)
	s := NewGormMealStore(conn)
	ctx := context.Background()

	meal := models.Meal{UserID: 5, Name: "soup", Calories: ptr(150)}
	if errCreate := s.Create(ctx, &meal); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	updated, err := s.UpdateNutrition(ctx, 5, meal.ID, map[string]any{"calories": 220.0, "name": "lentil soup"})
	if err != nil {
		t.Fatalf("UpdateNutrition: %v", err)
	}
	if updated.Name != "lentil soup" || updated.Calories == nil || *updated.Calories != 220 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if _, errColumn := s.UpdateNutrition(ctx, 5, meal.ID, map[string]any{"user_id": 9}); errColumn == nil {
		t.Fatalf("expected error for protected column")
	}
	if _, errMissing := s.UpdateNutrition(ctx, 6, meal.ID, map[string]any{"calories": 1.0}); !errors.Is(errMissing, ErrMealNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", errMissing)
	}

	toggled, err := s.UpdateAttributes(ctx, 5, meal.ID, func(attrs *models.MealAttributes) {
		attrs.IsFavorite = !attrs.IsFavorite
		attrs.Feedback = &models.MealFeedback{TasteRating: 4}
	})
	if err != nil {
		t.Fatalf("UpdateAttributes: %v", err)
	}
	if !toggled.Attributes.Data().IsFavorite {
		t.Fatalf("expected favorite=true")
	}

	reloaded, err := s.FindByID(ctx, 5, meal.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	attrs := reloaded.Attributes.Data()
	if !attrs.IsFavorite || attrs.Feedback == nil || attrs.Feedback.TasteRating != 4 {
		t.Fatalf("expected persisted attributes, got %+v", attrs)
	}
	if _, errMissing := s.UpdateAttributes(ctx, 6, meal.ID, func(*models.MealAttributes) {}); !errors.Is(errMissing, ErrMealNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", errMissing)
	}
}
