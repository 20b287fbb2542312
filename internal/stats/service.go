package stats

import (
	"context"
	"errors"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/models"

	log "github.com/sirupsen/logrus"
)

// MealSource returns a user's meals created within a window, oldest first.
type MealSource interface {
	ListInRange(ctx context.Context, userID uint64, from, to time.Time) ([]models.Meal, error)
}

// Service generates statistics reports from stored meals.
type Service struct {
	meals MealSource
	nowFn func() time.Time
	loc   *time.Location
}

// NewService constructs a Service. A nil nowFn uses time.Now and a nil loc uses time.Local.
func NewService(meals MealSource, nowFn func() time.Time, loc *time.Location) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{meals: meals, nowFn: nowFn, loc: loc}
}

// Generate builds the report for userID. Store faults surface as a single upstream error.
func (s *Service) Generate(ctx context.Context, userID uint64, q Query) (Report, error) {
	if s == nil || s.meals == nil {
		return Report{}, apperr.Upstream("failed to generate statistics", errors.New("stats: not initialized"))
	}
	if q.Period == "" {
		q.Period = PeriodWeek
	}
	window, errWindow := ResolveWindow(q, s.nowFn())
	if errWindow != nil {
		return Report{}, errWindow
	}

	meals, errList := s.meals.ListInRange(ctx, userID, window.Start, window.End)
	if errList != nil {
		log.WithError(errList).WithFields(log.Fields{
			"user_id": userID,
			"period":  q.Period,
		}).Error("stats: fetch meals failed")
		return Report{}, apperr.Upstream("failed to generate statistics", errList)
	}
	return Compute(meals, q.Period, window, s.loc), nil
}
