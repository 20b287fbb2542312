package stats

import (
	"testing"
	"time"

	"github.com/platewise/platewise-backend/internal/models"
)

func f(v float64) *float64 { return &v }

func weekWindow(end time.Time) Window {
	return Window{Start: end.AddDate(0, 0, -7), End: end}
}

func TestCompute_EmptyReturnsDefaultReport(t *testing.T) {
	end := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	report := Compute(nil, PeriodWeek, weekWindow(end), time.UTC)

	if report.NutritionScore != 50 {
		t.Fatalf("expected score=50, got %d", report.NutritionScore)
	}
	if report.EatingWindow.Start != "08:00" || report.EatingWindow.End != "20:00" {
		t.Fatalf("expected default eating window, got %+v", report.EatingWindow)
	}
	if report.IntermittentFastingHours != 12 {
		t.Fatalf("expected fasting=12, got %d", report.IntermittentFastingHours)
	}
	if report.MealCount != 0 || report.Averages != (NutrientAverages{}) || report.Totals != (NutrientTotals{}) {
		t.Fatalf("expected zero aggregates, got %+v %+v", report.Averages, report.Totals)
	}
	if report.CalorieGoalAchievementPercent != 0 || report.FullLoggingPercentage != 0 || report.MissedMealsAlert != 0 {
		t.Fatalf("expected zero percentages, got %+v", report)
	}
	if len(report.Insights) != 1 || len(report.Recommendations) != 1 {
		t.Fatalf("expected one generic insight and recommendation")
	}
	if len(report.WeeklyTrend) != 7 {
		t.Fatalf("expected 7 weekday buckets, got %d", len(report.WeeklyTrend))
	}
	if report.Estimates.FluidIntake.Status != MetricUnavailable {
		t.Fatalf("expected unavailable placeholders, got %q", report.Estimates.FluidIntake.Status)
	}
}

func TestCompute_AveragesUseWindowDays(t *testing.T) {
	end := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)
	meals := []models.Meal{
		{Calories: f(700), ProteinG: f(35), FiberG: f(7), SodiumMg: f(500), CreatedAt: end.Add(-30 * time.Hour)},
		{Calories: f(700), ProteinG: f(35), FiberG: f(7), CreatedAt: end.Add(-6 * time.Hour)},
		{Name: "no nutrition", CreatedAt: end.Add(-2 * time.Hour)},
	}
	report := Compute(meals, PeriodWeek, weekWindow(end), time.UTC)

	if report.TotalDays != 7 {
		t.Fatalf("expected 7 days, got %d", report.TotalDays)
	}
	if report.Totals.Calories != 1400 {
		t.Fatalf("expected total calories=1400, got %v", report.Totals.Calories)
	}
	if report.Averages.Calories != 200 {
		t.Fatalf("expected avg calories=200, got %d", report.Averages.Calories)
	}
	if report.Averages.Protein != 10 {
		t.Fatalf("expected avg protein=10, got %d", report.Averages.Protein)
	}
	if report.Averages.Sodium != 71 {
		t.Fatalf("expected avg sodium=71, got %d", report.Averages.Sodium)
	}
	if report.CalorieGoalAchievementPercent != 10 {
		t.Fatalf("expected goal percent=10, got %d", report.CalorieGoalAchievementPercent)
	}
	if report.FullLoggingPercentage != 14 {
		t.Fatalf("expected logging percent=14, got %d", report.FullLoggingPercentage)
	}
	if report.MissedMealsAlert != 18 {
		t.Fatalf("expected 18 missed meals, got %d", report.MissedMealsAlert)
	}
	if report.Estimates.CaffeineIntake.Status != MetricEstimated {
		t.Fatalf("expected estimated placeholders")
	}
}

func TestCompute_LoggingPercentCapped(t *testing.T) {
	end := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)
	window := Window{Start: end.Add(-24 * time.Hour), End: end}
	meals := make([]models.Meal, 0, 5)
	for i := 0; i < 5; i++ {
		meals = append(meals, models.Meal{Calories: f(1000), CreatedAt: end.Add(-time.Duration(i+1) * time.Hour)})
	}
	report := Compute(meals, PeriodCustom, window, time.UTC)
	if report.FullLoggingPercentage != 100 {
		t.Fatalf("expected logging percent capped at 100, got %d", report.FullLoggingPercentage)
	}
	if report.CalorieGoalAchievementPercent != 100 {
		t.Fatalf("expected goal percent capped at 100, got %d", report.CalorieGoalAchievementPercent)
	}
	if report.MissedMealsAlert != 0 {
		t.Fatalf("expected no missed meals, got %d", report.MissedMealsAlert)
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		avg  DailyAverages
		want int
	}{
		{"balanced", DailyAverages{Calories: 2000, Protein: 112, Fiber: 25, Sodium: 2000}, 100},
		{"no calories or protein high sodium", DailyAverages{Calories: 0, Protein: 0, Fiber: 25, Sodium: 10000}, 55},
		{"everything low", DailyAverages{Calories: 0, Protein: 0, Fiber: 0, Sodium: 10000}, 40},
		{"mild bands", DailyAverages{Calories: 1500, Protein: 90, Fiber: 17, Sodium: 2800}, 75},
		{"upper calorie band edge", DailyAverages{Calories: 2800, Protein: 112, Fiber: 20, Sodium: 3000}, 85},
		{"sodium band edge", DailyAverages{Calories: 1600, Protein: 101, Fiber: 20, Sodium: 2500}, 100},
	}
	for _, tc := range cases {
		if got := Score(tc.avg); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestCompute_WeeklyTrendSumsMatchTotals(t *testing.T) {
	end := time.Date(2026, 3, 8, 22, 0, 0, 0, time.UTC) // Sunday
	meals := []models.Meal{
		{Calories: f(500), ProteinG: f(20), CreatedAt: end.Add(-1 * time.Hour)},
		{Calories: f(300), ProteinG: f(10), CreatedAt: end.Add(-2 * time.Hour)},
		{Calories: f(650), CarbsG: f(80), CreatedAt: end.Add(-25 * time.Hour)},
		{Calories: f(410.5), FatsG: f(12), CreatedAt: end.Add(-73 * time.Hour)},
	}
	report := Compute(meals, PeriodWeek, weekWindow(end), time.UTC)

	var sum float64
	for _, day := range report.WeeklyTrend {
		sum += day.Calories
	}
	if sum != report.Totals.Calories {
		t.Fatalf("expected bucket sum %v to equal total %v", sum, report.Totals.Calories)
	}
	if report.WeeklyTrend[0].Name != "Sunday" || report.WeeklyTrend[0].Calories != 800 {
		t.Fatalf("expected Sunday bucket=800, got %+v", report.WeeklyTrend[0])
	}
	if report.WeeklyTrend[6].Calories != 650 {
		t.Fatalf("expected Saturday bucket=650, got %+v", report.WeeklyTrend[6])
	}
	if report.WeeklyTrend[4].Calories != 410.5 {
		t.Fatalf("expected Thursday bucket=410.5, got %+v", report.WeeklyTrend[4])
	}
}

func TestCompute_EatingWindow(t *testing.T) {
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	meals := []models.Meal{
		{CreatedAt: day.Add(12*time.Hour + 30*time.Minute)},
		{CreatedAt: day.Add(7*time.Hour + 15*time.Minute)},
		{CreatedAt: day.Add(24*time.Hour + 21*time.Hour + 45*time.Minute)},
	}
	report := Compute(meals, PeriodWeek, weekWindow(day.AddDate(0, 0, 2)), time.UTC)
	if report.EatingWindow.Start != "07:15" || report.EatingWindow.End != "21:45" {
		t.Fatalf("unexpected eating window %+v", report.EatingWindow)
	}
}

func TestFastingHours(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	at := func(dayOffset int, hour, minute int) models.Meal {
		return models.Meal{CreatedAt: day.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)}
	}

	if got := FastingHours([]models.Meal{at(0, 8, 0)}, time.UTC); got != 12 {
		t.Fatalf("expected 12 for a single meal, got %d", got)
	}
	if got := FastingHours([]models.Meal{at(0, 8, 0), at(0, 20, 0)}, time.UTC); got != 12 {
		t.Fatalf("expected 12 for a single date, got %d", got)
	}

	// 20:00 -> 08:00 is 12h, 21:00 -> 07:00 is 10h.
	meals := []models.Meal{at(0, 8, 0), at(0, 20, 0), at(1, 8, 0), at(1, 21, 0), at(2, 7, 0)}
	if got := FastingHours(meals, time.UTC); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}

	// A skipped day yields a gap over 24h and is ignored.
	skipped := []models.Meal{at(0, 20, 0), at(2, 8, 0)}
	if got := FastingHours(skipped, time.UTC); got != 12 {
		t.Fatalf("expected default for implausible gap, got %d", got)
	}

	// Short gaps under 8h are ignored.
	short := []models.Meal{at(0, 23, 30), at(1, 5, 0), at(1, 22, 0), at(2, 8, 0)}
	if got := FastingHours(short, time.UTC); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}

	// Rounded values stay inside the open interval.
	edge := []models.Meal{at(0, 23, 50), at(1, 8, 0)}
	if got := FastingHours(edge, time.UTC); got <= 8 || got >= 24 {
		t.Fatalf("expected value within (8,24), got %d", got)
	}
}

func TestCompute_InsightsFollowScoreTier(t *testing.T) {
	end := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)
	window := Window{Start: end.Add(-24 * time.Hour), End: end}
	meals := []models.Meal{
		{Calories: f(700), ProteinG: f(40), FiberG: f(10), CreatedAt: end.Add(-12 * time.Hour)},
		{Calories: f(700), ProteinG: f(40), FiberG: f(10), CreatedAt: end.Add(-6 * time.Hour)},
		{Calories: f(600), ProteinG: f(40), FiberG: f(10), CreatedAt: end.Add(-1 * time.Hour)},
	}
	report := Compute(meals, PeriodCustom, window, time.UTC)
	if report.NutritionScore != 100 {
		t.Fatalf("expected score=100, got %d", report.NutritionScore)
	}
	last := report.Insights[len(report.Insights)-1]
	if last != "Your overall nutrition is well balanced." {
		t.Fatalf("unexpected tier insight %q", last)
	}
	if len(report.Recommendations) != 1 || report.Recommendations[0] != "Keep up your current eating habits." {
		t.Fatalf("unexpected recommendations %v", report.Recommendations)
	}
}
