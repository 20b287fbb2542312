package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/platewise/platewise-backend/internal/models"
	"github.com/platewise/platewise-backend/internal/settings"
)

const (
	defaultNutritionScore = 50
	defaultFastingHours   = 12
	defaultWindowStart    = "08:00"
	defaultWindowEnd      = "20:00"

	minFastingGapHours = 8.0
	maxFastingGapHours = 24.0

	secondsPerDay = 24 * 60 * 60
)

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DailyAverages are unrounded per-day averages used for scoring and insights.
type DailyAverages struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
	Fiber    float64
	Sugar    float64
	Sodium   float64
}

// Compute builds the report for meals already filtered to window.
// Weekday bucketing and time-of-day values use loc, defaulting to time.Local.
func Compute(meals []models.Meal, period Period, window Window, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	totalDays := window.Days()
	if len(meals) == 0 {
		return emptyReport(period, window, totalDays)
	}

	var totals NutrientTotals
	trend := newWeeklyTrend()
	for _, meal := range meals {
		calories := valueOf(meal.Calories)
		protein := valueOf(meal.ProteinG)
		carbs := valueOf(meal.CarbsG)
		fats := valueOf(meal.FatsG)

		totals.Calories += calories
		totals.Protein += protein
		totals.Carbs += carbs
		totals.Fats += fats
		totals.Fiber += valueOf(meal.FiberG)
		totals.Sugar += valueOf(meal.SugarG)
		totals.Sodium += valueOf(meal.SodiumMg)

		bucket := &trend[int(meal.CreatedAt.In(loc).Weekday())]
		bucket.Calories += calories
		bucket.Protein += protein
		bucket.Carbs += carbs
		bucket.Fats += fats
	}

	days := float64(totalDays)
	avg := DailyAverages{
		Calories: totals.Calories / days,
		Protein:  totals.Protein / days,
		Carbs:    totals.Carbs / days,
		Fats:     totals.Fats / days,
		Fiber:    totals.Fiber / days,
		Sugar:    totals.Sugar / days,
		Sodium:   totals.Sodium / days,
	}

	expectedMeals := totalDays * settings.ExpectedMealsPerDay
	mealsPerDay := float64(len(meals)) / days
	score := Score(avg)

	return Report{
		Period:    period,
		StartDate: window.Start,
		EndDate:   window.End,
		TotalDays: totalDays,
		MealCount: len(meals),
		Totals:    totals,
		Averages: NutrientAverages{
			Calories: roundInt(avg.Calories),
			Protein:  roundInt(avg.Protein),
			Carbs:    roundInt(avg.Carbs),
			Fats:     roundInt(avg.Fats),
			Fiber:    roundInt(avg.Fiber),
			Sugar:    roundInt(avg.Sugar),
			Sodium:   roundInt(avg.Sodium),
		},
		CalorieGoalAchievementPercent: roundInt(math.Min(100, 100*avg.Calories/settings.DailyCalorieGoal)),
		FullLoggingPercentage:         roundInt(math.Min(100, 100*float64(len(meals))/float64(expectedMeals))),
		MissedMealsAlert:              max(0, expectedMeals-len(meals)),
		NutritionScore:                score,
		WeeklyTrend:                   trend,
		EatingWindow:                  eatingWindow(meals, loc),
		IntermittentFastingHours:      FastingHours(meals, loc),
		Insights:                      insights(avg, mealsPerDay, score),
		Recommendations:               recommendations(avg, mealsPerDay),
		Estimates:                     estimatedMetrics(),
	}
}

func emptyReport(period Period, window Window, totalDays int) Report {
	return Report{
		Period:                   period,
		StartDate:                window.Start,
		EndDate:                  window.End,
		TotalDays:                totalDays,
		NutritionScore:           defaultNutritionScore,
		WeeklyTrend:              newWeeklyTrend(),
		EatingWindow:             EatingWindow{Start: defaultWindowStart, End: defaultWindowEnd},
		IntermittentFastingHours: defaultFastingHours,
		Insights:                 []string{"Start logging meals to see insights about your nutrition."},
		Recommendations:          []string{"Log at least three meals a day for a complete picture of your diet."},
		Estimates:                unavailableMetrics(),
	}
}

// Score rates daily averages from 0 to 100. Each category deducts at most once.
func Score(avg DailyAverages) int {
	score := 100

	switch {
	case avg.Calories < 1200 || avg.Calories > 2800:
		score -= 20
	case avg.Calories < 1600 || avg.Calories > 2400:
		score -= 10
	}

	proteinTarget := settings.DailyProteinTarget
	switch {
	case avg.Protein < 0.7*proteinTarget:
		score -= 15
	case avg.Protein < 0.9*proteinTarget:
		score -= 5
	}

	switch {
	case avg.Fiber < 15:
		score -= 15
	case avg.Fiber < 20:
		score -= 5
	}

	switch {
	case avg.Sodium > 3000:
		score -= 10
	case avg.Sodium > 2500:
		score -= 5
	}

	return min(100, max(0, score))
}

// FastingHours estimates the overnight fast from gaps between consecutive logged dates.
// Gaps outside (8h, 24h) are ignored. Returns 12 without at least one usable gap.
func FastingHours(meals []models.Meal, loc *time.Location) int {
	if len(meals) < 2 {
		return defaultFastingHours
	}
	if loc == nil {
		loc = time.Local
	}

	// span tracks the first and last meal of a calendar date.
	type span struct {
		first time.Time
		last  time.Time
	}
	byDate := make(map[string]*span)
	for _, meal := range meals {
		t := meal.CreatedAt.In(loc)
		key := t.Format(time.DateOnly)
		s, ok := byDate[key]
		if !ok {
			byDate[key] = &span{first: t, last: t}
			continue
		}
		if t.Before(s.first) {
			s.first = t
		}
		if t.After(s.last) {
			s.last = t
		}
	}

	dates := make([]string, 0, len(byDate))
	for key := range byDate {
		dates = append(dates, key)
	}
	sort.Strings(dates)

	var sum float64
	var kept int
	for i := 1; i < len(dates); i++ {
		gap := byDate[dates[i]].first.Sub(byDate[dates[i-1]].last).Hours()
		if gap > minFastingGapHours && gap < maxFastingGapHours {
			sum += gap
			kept++
		}
	}
	if kept == 0 {
		return defaultFastingHours
	}
	hours := roundInt(sum / float64(kept))
	// Rounding can land on a bound of the open interval.
	return min(int(maxFastingGapHours)-1, max(int(minFastingGapHours)+1, hours))
}

func eatingWindow(meals []models.Meal, loc *time.Location) EatingWindow {
	earliest, latest := secondsPerDay, -1
	for _, meal := range meals {
		sec := secondOfDay(meal.CreatedAt.In(loc))
		earliest = min(earliest, sec)
		latest = max(latest, sec)
	}
	return EatingWindow{Start: formatClock(earliest), End: formatClock(latest)}
}

func newWeeklyTrend() []DayTotals {
	trend := make([]DayTotals, len(weekdayNames))
	for i, name := range weekdayNames {
		trend[i] = DayTotals{Day: i, Name: name}
	}
	return trend
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func formatClock(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/3600, (sec%3600)/60)
}

func valueOf(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return 0
	}
	return *v
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
