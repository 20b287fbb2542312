package meals

import (
	"math"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/models"

	"gorm.io/datatypes"
)

// DateLayout is the calendar date format accepted by date lookups.
const DateLayout = "2006-01-02"

const maxRating = 5

// MealInput is the payload of a save. Nutrition may use the legacy names or the short aliases;
// legacy names win when both are set.
type MealInput struct {
	Name     string   `json:"name"`
	Calories *float64 `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatsG    *float64 `json:"fats_g"`
	FiberG   *float64 `json:"fiber_g"`
	SugarG   *float64 `json:"sugar_g"`
	SodiumMg *float64 `json:"sodium_mg"`

	Protein *float64 `json:"protein"`
	Carbs   *float64 `json:"carbs"`
	Fat     *float64 `json:"fat"`
	Fiber   *float64 `json:"fiber"`
	Sugar   *float64 `json:"sugar"`
	Sodium  *float64 `json:"sodium"`

	Confidence  *float64   `json:"confidence"`
	Ingredients []string   `json:"ingredients"`
	ImageURL    string     `json:"image_url"`
	Source      string     `json:"source"`
	UploadTime  *time.Time `json:"upload_time"`
}

// MealPatch updates an existing meal. Nil fields are left untouched.
type MealPatch struct {
	Name     *string  `json:"name"`
	Calories *float64 `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatsG    *float64 `json:"fats_g"`
	FiberG   *float64 `json:"fiber_g"`
	SugarG   *float64 `json:"sugar_g"`
	SodiumMg *float64 `json:"sodium_mg"`

	Protein *float64 `json:"protein"`
	Carbs   *float64 `json:"carbs"`
	Fat     *float64 `json:"fat"`
	Fiber   *float64 `json:"fiber"`
	Sugar   *float64 `json:"sugar"`
	Sodium  *float64 `json:"sodium"`

	Ingredients []string   `json:"ingredients"`
	UploadTime  *time.Time `json:"upload_time"`
}

// toMeal builds the record to insert. Negative amounts clamp to 0.
func (in MealInput) toMeal(userID uint64) models.Meal {
	source := strings.ToLower(strings.TrimSpace(in.Source))
	switch source {
	case models.MealSourceAI, models.MealSourceManual, models.MealSourceDuplicate:
	default:
		source = models.MealSourceManual
	}
	meal := models.Meal{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Calories:    amount(in.Calories),
		ProteinG:    amount(firstSet(in.ProteinG, in.Protein)),
		CarbsG:      amount(firstSet(in.CarbsG, in.Carbs)),
		FatsG:       amount(firstSet(in.FatsG, in.Fat)),
		FiberG:      amount(firstSet(in.FiberG, in.Fiber)),
		SugarG:      amount(firstSet(in.SugarG, in.Sugar)),
		SodiumMg:    amount(firstSet(in.SodiumMg, in.Sodium)),
		Confidence:  confidence(in.Confidence),
		Ingredients: datatypes.NewJSONSlice(cleanIngredients(in.Ingredients)),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Source:      source,
		Attributes:  datatypes.NewJSONType(models.MealAttributes{}),
	}
	if in.UploadTime != nil {
		meal.UploadTime = *in.UploadTime
	}
	return meal
}

// columns maps the patch to store column updates.
func (p MealPatch) columns() map[string]any {
	updates := make(map[string]any)
	if p.Name != nil {
		updates["name"] = strings.TrimSpace(*p.Name)
	}
	set := func(column string, legacy, alias *float64) {
		if v := amount(firstSet(legacy, alias)); v != nil {
			updates[column] = *v
		}
	}
	set("calories", p.Calories, nil)
	set("protein_g", p.ProteinG, p.Protein)
	set("carbs_g", p.CarbsG, p.Carbs)
	set("fats_g", p.FatsG, p.Fat)
	set("fiber_g", p.FiberG, p.Fiber)
	set("sugar_g", p.SugarG, p.Sugar)
	set("sodium_mg", p.SodiumMg, p.Sodium)
	if p.Ingredients != nil {
		updates["ingredients"] = datatypes.NewJSONSlice(cleanIngredients(p.Ingredients))
	}
	if p.UploadTime != nil {
		updates["upload_time"] = p.UploadTime.UTC()
	}
	return updates
}

// ValidateFeedback rejects ratings outside 0..5.
func ValidateFeedback(feedback models.MealFeedback) error {
	for _, rating := range []int{feedback.TasteRating, feedback.SatietyRating, feedback.EnergyRating, feedback.HeavinessRating} {
		if rating < 0 || rating > maxRating {
			return apperr.Invalid("ratings must be between 0 and 5")
		}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, apperr.Invalid("date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}

func firstSet(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func amount(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := math.Max(0, *v)
	return &out
}

func confidence(v *float64) *float64 {
	out := amount(v)
	if out != nil && *out > 1 {
		*out = 1
	}
	return out
}

func cleanIngredients(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func copyAmount(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
