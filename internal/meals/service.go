// Package meals orchestrates meal logging and photo analysis for a user.
package meals

import (
	"context"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/analysis"
	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/imagestore"
	"github.com/platewise/platewise-backend/internal/mealview"
	"github.com/platewise/platewise-backend/internal/models"
	"github.com/platewise/platewise-backend/internal/quota"
	"github.com/platewise/platewise-backend/internal/settings"
	"github.com/platewise/platewise-backend/internal/store"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// MealRepository is the meal persistence used by Service.
type MealRepository interface {
	ListOnDate(ctx context.Context, userID uint64, day time.Time) ([]models.Meal, error)
	FindByID(ctx context.Context, userID, mealID uint64) (models.Meal, error)
	ListRecent(ctx context.Context, userID uint64, filter store.MealFilter) ([]models.Meal, error)
	Create(ctx context.Context, meal *models.Meal) error
	UpdateNutrition(ctx context.Context, userID, mealID uint64, updates map[string]any) (models.Meal, error)
	UpdateAttributes(ctx context.Context, userID, mealID uint64, mutate func(*models.MealAttributes)) (models.Meal, error)
}

// QuotaConsumer takes one analysis request from a user's daily allowance.
type QuotaConsumer interface {
	Consume(ctx context.Context, userID uint64) (quota.Status, error)
}

// Deps wires a Service. Gateway, Quota and Uploader may be nil; analysis then reports
// itself unavailable and photos are not stored.
type Deps struct {
	Meals    MealRepository
	Gateway  analysis.Gateway
	Quota    QuotaConsumer
	Uploader imagestore.Uploader
	Now      func() time.Time
}

// AnalyzeInput is a photo analysis request.
type AnalyzeInput struct {
	Image      []byte
	MIMEType   string
	Language   string
	Correction string
}

// AnalysisResult is an estimate that has not been saved yet.
type AnalysisResult struct {
	Estimate analysis.Estimate `json:"estimate"`
	ImageURL string            `json:"image_url,omitempty"`
	Quota    quota.Status      `json:"quota"`
}

// Service implements the meal operations exposed to clients.
type Service struct {
	meals    MealRepository
	gateway  analysis.Gateway
	quota    QuotaConsumer
	uploader imagestore.Uploader
	nowFn    func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		meals:    deps.Meals,
		gateway:  deps.Gateway,
		quota:    deps.Quota,
		uploader: deps.Uploader,
		nowFn:    nowFn,
	}
}

// Save logs a new meal and returns its view.
func (s *Service) Save(ctx context.Context, userID uint64, in MealInput) (mealview.MealView, error) {
	meal := in.toMeal(userID)
	if meal.UploadTime.IsZero() {
		meal.UploadTime = s.nowFn()
	}
	if errCreate := s.meals.Create(ctx, &meal); errCreate != nil {
		return mealview.MealView{}, upstream(errCreate, "failed to save meal", userID)
	}
	return mealview.FromMeal(meal), nil
}

// ListRecent returns the user's most recent meals, newest first.
func (s *Service) ListRecent(ctx context.Context, userID uint64, filter store.MealFilter) ([]mealview.MealView, error) {
	if filter.Limit <= 0 || filter.Limit > settings.DefaultRecentMealsLimit {
		filter.Limit = settings.DefaultRecentMealsLimit
	}
	rows, errList := s.meals.ListRecent(ctx, userID, filter)
	if errList != nil {
		return nil, upstream(errList, "failed to load meals", userID)
	}
	return mealview.FromMeals(rows), nil
}

// ListByDate returns the meals logged on day's calendar date.
func (s *Service) ListByDate(ctx context.Context, userID uint64, day time.Time) ([]mealview.MealView, error) {
	rows, errList := s.meals.ListOnDate(ctx, userID, day)
	if errList != nil {
		return nil, upstream(errList, "failed to load meals", userID)
	}
	return mealview.FromMeals(rows), nil
}

// Get returns one meal owned by the user.
func (s *Service) Get(ctx context.Context, userID, mealID uint64) (mealview.MealView, error) {
	meal, errFind := s.meals.FindByID(ctx, userID, mealID)
	if errFind != nil {
		return mealview.MealView{}, upstream(errFind, "failed to load meal", userID)
	}
	return mealview.FromMeal(meal), nil
}

// Update applies a patch to an owned meal.
func (s *Service) Update(ctx context.Context, userID, mealID uint64, patch MealPatch) (mealview.MealView, error) {
	meal, errUpdate := s.meals.UpdateNutrition(ctx, userID, mealID, patch.columns())
	if errUpdate != nil {
		return mealview.MealView{}, upstream(errUpdate, "failed to update meal", userID)
	}
	return mealview.FromMeal(meal), nil
}

// Duplicate logs a copy of an owned meal with identical nutrition. The copy is
// logged at `at` when given, otherwise now. Favorite and feedback are not copied.
func (s *Service) Duplicate(ctx context.Context, userID, mealID uint64, at *time.Time) (mealview.MealView, error) {
	original, errFind := s.meals.FindByID(ctx, userID, mealID)
	if errFind != nil {
		return mealview.MealView{}, upstream(errFind, "failed to duplicate meal", userID)
	}

	uploadTime := s.nowFn()
	if at != nil && !at.IsZero() {
		uploadTime = *at
	}
	copied := models.Meal{
		UserID:      userID,
		Name:        original.Name,
		Calories:    copyAmount(original.Calories),
		ProteinG:    copyAmount(original.ProteinG),
		CarbsG:      copyAmount(original.CarbsG),
		FatsG:       copyAmount(original.FatsG),
		FiberG:      copyAmount(original.FiberG),
		SugarG:      copyAmount(original.SugarG),
		SodiumMg:    copyAmount(original.SodiumMg),
		Confidence:  copyAmount(original.Confidence),
		Ingredients: datatypes.NewJSONSlice(append([]string{}, original.Ingredients...)),
		ImageURL:    original.ImageURL,
		Source:      models.MealSourceDuplicate,
		Attributes:  datatypes.NewJSONType(models.MealAttributes{}),
		UploadTime:  uploadTime,
	}
	if errCreate := s.meals.Create(ctx, &copied); errCreate != nil {
		return mealview.MealView{}, upstream(errCreate, "failed to duplicate meal", userID)
	}
	return mealview.FromMeal(copied), nil
}

// SetFeedback replaces the meal's ratings.
func (s *Service) SetFeedback(ctx context.Context, userID, mealID uint64, feedback models.MealFeedback) (mealview.MealView, error) {
	if errValidate := ValidateFeedback(feedback); errValidate != nil {
		return mealview.MealView{}, errValidate
	}
	meal, errUpdate := s.meals.UpdateAttributes(ctx, userID, mealID, func(attrs *models.MealAttributes) {
		fb := feedback
		attrs.Feedback = &fb
	})
	if errUpdate != nil {
		return mealview.MealView{}, upstream(errUpdate, "failed to save feedback", userID)
	}
	return mealview.FromMeal(meal), nil
}

// ToggleFavorite flips the favorite flag and returns the updated meal.
func (s *Service) ToggleFavorite(ctx context.Context, userID, mealID uint64) (mealview.MealView, error) {
	meal, errUpdate := s.meals.UpdateAttributes(ctx, userID, mealID, func(attrs *models.MealAttributes) {
		attrs.IsFavorite = !attrs.IsFavorite
	})
	if errUpdate != nil {
		return mealview.MealView{}, upstream(errUpdate, "failed to update favorite", userID)
	}
	return mealview.FromMeal(meal), nil
}

// Analyze consumes one quota request, asks the gateway for an estimate and stores the photo
// when an uploader is configured. The estimate is returned unsaved.
func (s *Service) Analyze(ctx context.Context, userID uint64, in AnalyzeInput) (AnalysisResult, error) {
	if len(in.Image) == 0 {
		return AnalysisResult{}, apperr.Invalid("image is required")
	}
	if errReady := s.analysisReady(); errReady != nil {
		return AnalysisResult{}, errReady
	}
	status, errConsume := s.quota.Consume(ctx, userID)
	if errConsume != nil {
		return AnalysisResult{}, upstream(errConsume, "failed to record AI request", userID)
	}

	estimate, errAnalyze := s.gateway.Analyze(ctx, analysis.AnalyzeRequest{
		Image:      in.Image,
		MIMEType:   in.MIMEType,
		Language:   in.Language,
		Correction: in.Correction,
	})
	if errAnalyze != nil {
		return AnalysisResult{}, upstream(errAnalyze, "failed to analyze meal", userID)
	}

	result := AnalysisResult{Estimate: estimate, Quota: status}
	if s.uploader != nil {
		url, errUpload := s.uploader.Upload(ctx, userID, in.Image, in.MIMEType)
		if errUpload != nil {
			log.WithError(errUpload).WithField("user_id", userID).Warn("meals: photo upload failed, continuing without image")
		} else {
			result.ImageURL = url
		}
	}
	return result, nil
}

// Revise consumes one quota request and asks the gateway to correct a previous estimate.
func (s *Service) Revise(ctx context.Context, userID uint64, previous analysis.Estimate, correction, language string) (AnalysisResult, error) {
	if strings.TrimSpace(correction) == "" {
		return AnalysisResult{}, apperr.Invalid("correction is required")
	}
	if errReady := s.analysisReady(); errReady != nil {
		return AnalysisResult{}, errReady
	}
	status, errConsume := s.quota.Consume(ctx, userID)
	if errConsume != nil {
		return AnalysisResult{}, upstream(errConsume, "failed to record AI request", userID)
	}
	estimate, errRevise := s.gateway.Revise(ctx, analysis.ReviseRequest{
		Previous:   previous,
		Correction: correction,
		Language:   language,
	})
	if errRevise != nil {
		return AnalysisResult{}, upstream(errRevise, "failed to revise meal", userID)
	}
	return AnalysisResult{Estimate: estimate, Quota: status}, nil
}

func (s *Service) analysisReady() error {
	if s.gateway == nil || s.quota == nil {
		return apperr.Upstream("meal analysis is not configured", nil)
	}
	return nil
}

// upstream passes classified errors through and wraps the rest behind message.
func upstream(err error, message string, userID uint64) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	log.WithError(err).WithField("user_id", userID).Error("meals: " + message)
	return apperr.Upstream(message, err)
}
