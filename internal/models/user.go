package models

import "time"

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email string `gorm:"type:text;index"` // Email address.
	Name  string `gorm:"type:text"`       // Display name.

	PlanTier string `gorm:"type:varchar(32);not null;default:'FREE'"` // Subscription tier (FREE, BASIC, PREMIUM).

	AIRequestsCount   int       `gorm:"not null;default:0"` // AI analysis requests in the current window.
	AIRequestsResetAt time.Time `gorm:"not null"`           // Start of the current 24h window.

	Meals []Meal `gorm:"foreignKey:UserID"` // Logged meals.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
