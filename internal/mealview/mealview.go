// Package mealview maps stored meals to the client payload.
//
// Nutrition is emitted under both the snake_case names older app builds read
// and the short names newer builds read. Missing values become 0.
package mealview

import (
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/models"
)

// UnknownMealName replaces an empty meal name.
const UnknownMealName = "Unknown Meal"

// Feedback carries the four meal ratings, 0 when unrated.
type Feedback struct {
	TasteRating     int `json:"tasteRating"`
	SatietyRating   int `json:"satietyRating"`
	EnergyRating    int `json:"energyRating"`
	HeavinessRating int `json:"heavinessRating"`
}

// MealView is the client-facing meal shape.
type MealView struct {
	ID     uint64 `json:"id"`
	UserID uint64 `json:"user_id"`
	Name   string `json:"name"`

	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatsG    float64 `json:"fats_g"`
	FiberG   float64 `json:"fiber_g"`
	SugarG   float64 `json:"sugar_g"`
	SodiumMg float64 `json:"sodium_mg"`

	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
	Sugar   float64 `json:"sugar"`
	Sodium  float64 `json:"sodium"`

	Confidence  float64  `json:"confidence"`
	Ingredients []string `json:"ingredients"`
	ImageURL    string   `json:"image_url"`
	Source      string   `json:"source"`

	IsFavorite bool     `json:"isFavorite"`
	Feedback   Feedback `json:"feedback"`

	CreatedAt  time.Time `json:"created_at"`
	UploadTime time.Time `json:"upload_time"`
}

// FromMeal builds the view for meal. The input is not modified.
func FromMeal(meal models.Meal) MealView {
	name := strings.TrimSpace(meal.Name)
	if name == "" {
		name = UnknownMealName
	}

	view := MealView{
		ID:          meal.ID,
		UserID:      meal.UserID,
		Name:        name,
		Calories:    orZero(meal.Calories),
		ProteinG:    orZero(meal.ProteinG),
		CarbsG:      orZero(meal.CarbsG),
		FatsG:       orZero(meal.FatsG),
		FiberG:      orZero(meal.FiberG),
		SugarG:      orZero(meal.SugarG),
		SodiumMg:    orZero(meal.SodiumMg),
		Confidence:  orZero(meal.Confidence),
		Ingredients: append([]string{}, meal.Ingredients...),
		ImageURL:    meal.ImageURL,
		Source:      meal.Source,
		CreatedAt:   meal.CreatedAt,
		UploadTime:  meal.UploadTime,
	}
	view.Protein = view.ProteinG
	view.Carbs = view.CarbsG
	view.Fat = view.FatsG
	view.Fiber = view.FiberG
	view.Sugar = view.SugarG
	view.Sodium = view.SodiumMg

	attrs := meal.Attributes.Data()
	view.IsFavorite = attrs.IsFavorite
	if attrs.Feedback != nil {
		view.Feedback = Feedback{
			TasteRating:     attrs.Feedback.TasteRating,
			SatietyRating:   attrs.Feedback.SatietyRating,
			EnergyRating:    attrs.Feedback.EnergyRating,
			HeavinessRating: attrs.Feedback.HeavinessRating,
		}
	}
	return view
}

// FromMeals maps a slice, preserving order.
func FromMeals(meals []models.Meal) []MealView {
	out := make([]MealView, 0, len(meals))
	for _, meal := range meals {
		out = append(out, FromMeal(meal))
	}
	return out
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
