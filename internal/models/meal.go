package models

import (
	"time"

	"gorm.io/datatypes"
)

// Meal sources.
const (
	MealSourceAI        = "ai"
	MealSourceManual    = "manual"
	MealSourceDuplicate = "duplicate"
)

// Meal represents one logged eating event.
type Meal struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.
	UserID uint64 `gorm:"not null;index"`           // Owning user ID.

	Name string `gorm:"type:text"` // Meal name, empty when unknown.

	Calories *float64 `gorm:"type:decimal(10,2)"` // Energy in kcal.
	ProteinG *float64 `gorm:"type:decimal(10,2)"` // Protein in grams.
	CarbsG   *float64 `gorm:"type:decimal(10,2)"` // Carbohydrates in grams.
	FatsG    *float64 `gorm:"type:decimal(10,2)"` // Fats in grams.
	FiberG   *float64 `gorm:"type:decimal(10,2)"` // Fiber in grams.
	SugarG   *float64 `gorm:"type:decimal(10,2)"` // Sugar in grams.
	SodiumMg *float64 `gorm:"type:decimal(10,2)"` // Sodium in milligrams.

	Confidence  *float64                    `gorm:"type:decimal(5,4)"` // Analysis confidence in [0,1].
	Ingredients datatypes.JSONSlice[string] `gorm:"not null"`          // Detected ingredients.
	ImageURL    string                      `gorm:"type:text"`         // Stored photo URL.
	Source      string                      `gorm:"type:varchar(16)"`  // ai, manual or duplicate.

	Attributes datatypes.JSONType[MealAttributes] `gorm:"not null"` // Favorite flag and feedback.

	UploadTime time.Time `gorm:"not null;index"`                // When the meal was logged by the user.
	CreatedAt  time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp, drives statistics windows.
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}

// MealAttributes holds optional per-meal user annotations.
type MealAttributes struct {
	IsFavorite bool          `json:"isFavorite"`
	Feedback   *MealFeedback `json:"feedback,omitempty"`
}

// MealFeedback holds user ratings for a meal, 0 means unrated.
type MealFeedback struct {
	TasteRating     int `json:"tasteRating"`
	SatietyRating   int `json:"satietyRating"`
	EnergyRating    int `json:"energyRating"`
	HeavinessRating int `json:"heavinessRating"`
}
