package models

import (
	"time"

	"gorm.io/datatypes"
)

// Plan represents a subscription tier and its usage allowances.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Tier        string                      `gorm:"type:varchar(32);not null;uniqueIndex"` // Tier code matched against User.PlanTier.
	Name        string                      `gorm:"type:varchar(255);not null"`            // Display name.
	Description string                      `gorm:"type:text"`                             // Plan description.
	Features    datatypes.JSONSlice[string] `gorm:"not null"`                              // Feature bullet points.

	DailyAIRequests int `gorm:"not null;default:0"` // AI analysis requests allowed per 24h.
	RateLimit       int `gorm:"not null;default:0"` // Analysis requests per rate-limit window, 0 means unlimited.

	SortOrder int  `gorm:"not null;default:0"`    // Display ordering weight.
	IsEnabled bool `gorm:"not null;default:true"` // Whether the plan is offered.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
