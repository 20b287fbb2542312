package stats

import "time"

// Metric statuses for values that are not derived from logged meals.
const (
	MetricEstimated   = "estimated"
	MetricUnavailable = "unavailable"
)

// Report is the statistics payload for one user and window.
type Report struct {
	Period    Period    `json:"period"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	TotalDays int       `json:"totalDays"`
	MealCount int       `json:"mealCount"`

	Totals   NutrientTotals   `json:"totals"`
	Averages NutrientAverages `json:"averages"`

	CalorieGoalAchievementPercent int `json:"calorieGoalAchievementPercent"`
	FullLoggingPercentage         int `json:"fullLoggingPercentage"`
	MissedMealsAlert              int `json:"missedMealsAlert"`
	NutritionScore                int `json:"nutritionScore"`

	WeeklyTrend []DayTotals `json:"weeklyTrend"`

	EatingWindow             EatingWindow `json:"eatingWindow"`
	IntermittentFastingHours int          `json:"intermittentFastingHours"`

	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`

	Estimates EstimatedMetrics `json:"estimates"`
}

// NutrientTotals are raw sums over the window.
type NutrientTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

// NutrientAverages are daily averages rounded to whole units.
type NutrientAverages struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
	Fiber    int `json:"fiber"`
	Sugar    int `json:"sugar"`
	Sodium   int `json:"sodium"`
}

// DayTotals sums meals falling on one weekday, 0=Sunday.
type DayTotals struct {
	Day      int     `json:"day"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// EatingWindow spans the earliest and latest meal time of day, formatted HH:MM.
type EatingWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EstimatedMetric is a value not measured from logged meals.
type EstimatedMetric struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Status string  `json:"status"`
}

// EstimatedMetrics groups report fields that meal records cannot yet support.
type EstimatedMetrics struct {
	FluidIntake          EstimatedMetric `json:"fluidIntake"`
	ProcessedFoodPercent EstimatedMetric `json:"processedFoodPercent"`
	AlcoholDrinks        EstimatedMetric `json:"alcoholDrinks"`
	CaffeineIntake       EstimatedMetric `json:"caffeineIntake"`
	VegetablePercent     EstimatedMetric `json:"vegetablePercent"`
	FruitPercent         EstimatedMetric `json:"fruitPercent"`
}

func estimatedMetrics() EstimatedMetrics {
	return EstimatedMetrics{
		FluidIntake:          EstimatedMetric{Value: 2000, Unit: "ml", Status: MetricEstimated},
		ProcessedFoodPercent: EstimatedMetric{Value: 20, Unit: "%", Status: MetricEstimated},
		AlcoholDrinks:        EstimatedMetric{Value: 0, Unit: "drinks", Status: MetricEstimated},
		CaffeineIntake:       EstimatedMetric{Value: 150, Unit: "mg", Status: MetricEstimated},
		VegetablePercent:     EstimatedMetric{Value: 40, Unit: "%", Status: MetricEstimated},
		FruitPercent:         EstimatedMetric{Value: 30, Unit: "%", Status: MetricEstimated},
	}
}

func unavailableMetrics() EstimatedMetrics {
	return EstimatedMetrics{
		FluidIntake:          EstimatedMetric{Unit: "ml", Status: MetricUnavailable},
		ProcessedFoodPercent: EstimatedMetric{Unit: "%", Status: MetricUnavailable},
		AlcoholDrinks:        EstimatedMetric{Unit: "drinks", Status: MetricUnavailable},
		CaffeineIntake:       EstimatedMetric{Unit: "mg", Status: MetricUnavailable},
		VegetablePercent:     EstimatedMetric{Unit: "%", Status: MetricUnavailable},
		FruitPercent:         EstimatedMetric{Unit: "%", Status: MetricUnavailable},
	}
}
