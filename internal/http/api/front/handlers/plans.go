package handlers

import (
	"net/http"

	"github.com/platewise/platewise-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PlanFrontHandler serves plan-related front endpoints.
type PlanFrontHandler struct {
	db *gorm.DB
}

// NewPlanFrontHandler constructs a PlanFrontHandler.
func NewPlanFrontHandler(db *gorm.DB) *PlanFrontHandler {
	return &PlanFrontHandler{db: db}
}

// List returns the enabled plan tiers with their analysis allowances.
func (h *PlanFrontHandler) List(c *gin.Context) {
	var plans []models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_enabled = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&plans).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}

	out := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		features := []string(plan.Features)
		if features == nil {
			features = []string{}
		}
		out = append(out, gin.H{
			"tier":              plan.Tier,
			"name":              plan.Name,
			"description":       plan.Description,
			"features":          features,
			"daily_ai_requests": plan.DailyAIRequests,
			"rate_limit":        plan.RateLimit,
			"sort_order":        plan.SortOrder,
		})
	}

	c.JSON(http.StatusOK, gin.H{"plans": out})
}
