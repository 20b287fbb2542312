package stats

import "github.com/platewise/platewise-backend/internal/settings"

func insights(avg DailyAverages, mealsPerDay float64, score int) []string {
	out := make([]string, 0, 5)

	switch {
	case avg.Calories < 1200:
		out = append(out, "Your average calorie intake is well below the recommended level.")
	case avg.Calories > 2800:
		out = append(out, "Your average calorie intake is above the recommended range.")
	case avg.Calories >= 1600 && avg.Calories <= 2400:
		out = append(out, "Your average calorie intake is within a healthy range.")
	default:
		out = append(out, "Your average calorie intake is close to the recommended range.")
	}

	proteinTarget := settings.DailyProteinTarget
	switch {
	case avg.Protein >= proteinTarget:
		out = append(out, "You are meeting your daily protein target.")
	case avg.Protein < 0.7*proteinTarget:
		out = append(out, "Your protein intake is low compared to your target.")
	}

	switch {
	case mealsPerDay < 2:
		out = append(out, "You log fewer than two meals per day on average.")
	case mealsPerDay >= settings.ExpectedMealsPerDay:
		out = append(out, "You are logging your meals consistently.")
	}

	switch {
	case avg.Fiber < 15:
		out = append(out, "Your fiber intake is low.")
	case avg.Fiber >= 25:
		out = append(out, "Your fiber intake is excellent.")
	}

	switch {
	case score < 60:
		out = append(out, "Your overall nutrition score needs attention.")
	case score < 80:
		out = append(out, "Your nutrition is on the right track.")
	default:
		out = append(out, "Your overall nutrition is well balanced.")
	}
	return out
}

func recommendations(avg DailyAverages, mealsPerDay float64) []string {
	out := make([]string, 0, 5)

	switch {
	case avg.Calories < 1600:
		out = append(out, "Add nutrient-dense snacks such as nuts or yogurt to reach your energy needs.")
	case avg.Calories > 2400:
		out = append(out, "Reduce portion sizes or swap calorie-dense snacks for vegetables.")
	}
	if avg.Protein < 0.9*settings.DailyProteinTarget {
		out = append(out, "Include a protein source like eggs, fish, legumes or lean meat in each meal.")
	}
	if mealsPerDay < settings.ExpectedMealsPerDay {
		out = append(out, "Try logging every meal to get more accurate statistics.")
	}
	if avg.Fiber < 20 {
		out = append(out, "Add whole grains, beans, fruit and vegetables to increase fiber.")
	}
	if avg.Sodium > 2500 {
		out = append(out, "Limit processed foods and added salt to bring sodium down.")
	}
	if len(out) == 0 {
		out = append(out, "Keep up your current eating habits.")
	}
	return out
}
