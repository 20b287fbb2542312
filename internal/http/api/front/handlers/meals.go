package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/meals"
	"github.com/platewise/platewise-backend/internal/models"
	"github.com/platewise/platewise-backend/internal/store"

	"github.com/gin-gonic/gin"
)

// MealFrontHandler serves the caller's meal log.
type MealFrontHandler struct {
	svc *meals.Service
	loc *time.Location
}

// NewMealFrontHandler constructs a MealFrontHandler. Calendar dates are read in loc.
func NewMealFrontHandler(svc *meals.Service, loc *time.Location) *MealFrontHandler {
	if loc == nil {
		loc = time.Local
	}
	return &MealFrontHandler{svc: svc, loc: loc}
}

// duplicateMealRequest picks the log time of a copy. Date wins over UploadTime.
type duplicateMealRequest struct {
	Date       string     `json:"date"`
	UploadTime *time.Time `json:"upload_time"`
}

// List returns recent meals, newest first.
// Query: limit, q (name substring), ingredient, favorites=true.
func (h *MealFrontHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	filter := store.MealFilter{
		Query:         c.Query("q"),
		Ingredient:    c.Query("ingredient"),
		FavoritesOnly: strings.EqualFold(strings.TrimSpace(c.Query("favorites")), "true"),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, errLimit := strconv.Atoi(raw)
		if errLimit != nil || limit <= 0 {
			writeError(c, apperr.Invalid("limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	views, errList := h.svc.ListRecent(c.Request.Context(), userID, filter)
	if errList != nil {
		writeError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": views})
}

// ByDate returns the meals logged on :date (YYYY-MM-DD).
func (h *MealFrontHandler) ByDate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	day, errDate := meals.ParseDate(c.Param("date"), h.loc)
	if errDate != nil {
		writeError(c, errDate)
		return
	}
	views, errList := h.svc.ListByDate(c.Request.Context(), userID, day)
	if errList != nil {
		writeError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format(meals.DateLayout), "meals": views})
}

// Get returns one meal.
func (h *MealFrontHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	mealID, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	view, errGet := h.svc.Get(c.Request.Context(), userID, mealID)
	if errGet != nil {
		writeError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": view})
}

// Create logs a meal.
func (h *MealFrontHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body meals.MealInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		writeError(c, apperr.Invalid("invalid json"))
		return
	}
	view, errSave := h.svc.Save(c.Request.Context(), userID, body)
	if errSave != nil {
		writeError(c, errSave)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meal": view})
}

// Update patches a meal's name, nutrition, ingredients or log time.
func (h *MealFrontHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	mealID, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	var body meals.MealPatch
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		writeError(c, apperr.Invalid("invalid json"))
		return
	}
	view, errUpdate := h.svc.Update(c.Request.Context(), userID, mealID, body)
	if errUpdate != nil {
		writeError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": view})
}

// Duplicate logs a copy of a meal, now or on the requested date.
func (h *MealFrontHandler) Duplicate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	mealID, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	var body duplicateMealRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			writeError(c, apperr.Invalid("invalid json"))
			return
		}
	}

	var at *time.Time
	switch {
	case strings.TrimSpace(body.Date) != "":
		day, errDate := meals.ParseDate(body.Date, h.loc)
		if errDate != nil {
			writeError(c, errDate)
			return
		}
		// Keep the time of day of the request so copies on the same date stay ordered.
		now := time.Now().In(h.loc)
		logged := time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, h.loc)
		at = &logged
	case body.UploadTime != nil:
		at = body.UploadTime
	}

	view, errDup := h.svc.Duplicate(c.Request.Context(), userID, mealID, at)
	if errDup != nil {
		writeError(c, errDup)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meal": view})
}

// Feedback stores the four meal ratings.
func (h *MealFrontHandler) Feedback(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	mealID, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	var body models.MealFeedback
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		writeError(c, apperr.Invalid("invalid json"))
		return
	}
	view, errFeedback := h.svc.SetFeedback(c.Request.Context(), userID, mealID, body)
	if errFeedback != nil {
		writeError(c, errFeedback)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": view})
}

// Favorite toggles the favorite flag.
func (h *MealFrontHandler) Favorite(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	mealID, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	view, errToggle := h.svc.ToggleFavorite(c.Request.Context(), userID, mealID)
	if errToggle != nil {
		writeError(c, errToggle)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": view, "isFavorite": view.IsFavorite})
}
