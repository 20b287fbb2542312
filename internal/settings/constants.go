package settings

import "time"

// Nutrition targets used by statistics.
const (
	// DailyCalorieGoal is the fixed calorie target per day.
	DailyCalorieGoal = 2000.0
	// ReferenceBodyWeightKg is the body weight used for the protein target.
	ReferenceBodyWeightKg = 70.0
	// ProteinGramsPerKg is the protein intake per kilogram of body weight.
	ProteinGramsPerKg = 1.6
	// DailyProteinTarget is the derived protein target in grams.
	DailyProteinTarget = ReferenceBodyWeightKg * ProteinGramsPerKg
	// ExpectedMealsPerDay drives logging completeness and missed meal alerts.
	ExpectedMealsPerDay = 3
)

// Plan tiers and their daily AI analysis limits.
const (
	PlanTierFree    = "FREE"
	PlanTierBasic   = "BASIC"
	PlanTierPremium = "PREMIUM"

	FreeDailyAIRequests    = 10
	BasicDailyAIRequests   = 50
	PremiumDailyAIRequests = 200
)

// Rate limit defaults.
const (
	// DefaultRateLimit is the fallback analysis requests per window.
	DefaultRateLimit = 0
	// DefaultRateLimitWindow is the fixed window length for analysis bursts.
	DefaultRateLimitWindow = time.Second
	// DefaultRateLimitRedisPrefix is the key prefix for Redis counters.
	DefaultRateLimitRedisPrefix = "platewise:rl"
)

// DefaultRecentMealsLimit caps the recent meals listing.
const DefaultRecentMealsLimit = 100
