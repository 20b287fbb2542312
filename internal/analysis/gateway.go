// Package analysis estimates meal nutrition from photos through a generative model.
package analysis

import (
	"context"
	"math"
	"strings"
)

// DefaultLanguage is used when a request carries no language.
const DefaultLanguage = "en"

// Gateway produces nutrition estimates. Implementations must not persist anything.
type Gateway interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (Estimate, error)
	Revise(ctx context.Context, req ReviseRequest) (Estimate, error)
}

// AnalyzeRequest asks for an estimate of the meal in Image.
type AnalyzeRequest struct {
	Image      []byte
	MIMEType   string
	Language   string
	Correction string // Optional user hint, e.g. "the sauce is yogurt based".
}

// ReviseRequest asks for a corrected version of a previous estimate.
type ReviseRequest struct {
	Previous   Estimate
	Correction string
	Language   string
}

// Estimate is a structured nutrition guess for one meal.
type Estimate struct {
	Name        string   `json:"name"`
	Calories    float64  `json:"calories"`
	ProteinG    float64  `json:"protein_g"`
	CarbsG      float64  `json:"carbs_g"`
	FatsG       float64  `json:"fats_g"`
	FiberG      float64  `json:"fiber_g"`
	SugarG      float64  `json:"sugar_g"`
	SodiumMg    float64  `json:"sodium_mg"`
	Confidence  float64  `json:"confidence"`
	Ingredients []string `json:"ingredients"`
}

// Normalize clamps negative or non-finite values to 0, confidence to [0,1],
// and drops blank ingredients.
func (e Estimate) Normalize() Estimate {
	e.Name = strings.TrimSpace(e.Name)
	e.Calories = nonNegative(e.Calories)
	e.ProteinG = nonNegative(e.ProteinG)
	e.CarbsG = nonNegative(e.CarbsG)
	e.FatsG = nonNegative(e.FatsG)
	e.FiberG = nonNegative(e.FiberG)
	e.SugarG = nonNegative(e.SugarG)
	e.SodiumMg = nonNegative(e.SodiumMg)
	e.Confidence = math.Min(1, nonNegative(e.Confidence))

	ingredients := make([]string, 0, len(e.Ingredients))
	for _, item := range e.Ingredients {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			ingredients = append(ingredients, trimmed)
		}
	}
	e.Ingredients = ingredients
	return e
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func languageOrDefault(lang string) string {
	if trimmed := strings.TrimSpace(lang); trimmed != "" {
		return trimmed
	}
	return DefaultLanguage
}
