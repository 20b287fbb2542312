package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/models"
)

type fakeMealSource struct {
	meals    []models.Meal
	err      error
	gotFrom  time.Time
	gotTo    time.Time
	gotCalls int
}

func (f *fakeMealSource) ListInRange(_ context.Context, _ uint64, from, to time.Time) ([]models.Meal, error) {
	f.gotCalls++
	f.gotFrom = from
	f.gotTo = to
	return f.meals, f.err
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)

	week, err := ResolveWindow(Query{Period: PeriodWeek}, now)
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if week.Days() != 7 || !week.End.Equal(now) {
		t.Fatalf("unexpected week window %+v", week)
	}

	month, err := ResolveWindow(Query{Period: PeriodMonth}, now)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if month.Days() != 30 {
		t.Fatalf("expected 30 days, got %d", month.Days())
	}

	if _, errMissing := ResolveWindow(Query{Period: PeriodCustom}, now); !errors.Is(errMissing, apperr.ErrInvalid) {
		t.Fatalf("expected invalid input for unset custom bounds, got %v", errMissing)
	}

	from := now.Add(-36 * time.Hour)
	custom, err := ResolveWindow(Query{Period: PeriodCustom, From: &from, To: &now}, now)
	if err != nil {
		t.Fatalf("custom: %v", err)
	}
	if custom.Days() != 3 {
		t.Fatalf("expected 3 calendar dates (29th to 31st), got %d", custom.Days())
	}

	if _, errInverted := ResolveWindow(Query{Period: PeriodCustom, From: &now, To: &from}, now); !errors.Is(errInverted, apperr.ErrInvalid) {
		t.Fatalf("expected invalid input for inverted bounds, got %v", errInverted)
	}
}

func TestResolveWindow_AcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks fall back on 2026-11-01.
	now := time.Date(2026, 11, 10, 12, 0, 0, 0, loc)

	month, err := ResolveWindow(Query{Period: PeriodMonth}, now)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if span := month.End.Sub(month.Start); span != 30*24*time.Hour {
		t.Fatalf("expected 720h trailing month, got %s", span)
	}
	if month.Days() != 30 {
		t.Fatalf("expected 30 days across fall-back, got %d", month.Days())
	}

	week, err := ResolveWindow(Query{Period: PeriodWeek}, time.Date(2026, 11, 4, 12, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if week.Days() != 7 {
		t.Fatalf("expected 7 days across fall-back, got %d", week.Days())
	}

	from := time.Date(2026, 10, 29, 0, 0, 0, 0, loc)
	to := time.Date(2026, 11, 4, 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	custom, err := ResolveWindow(Query{Period: PeriodCustom, From: &from, To: &to}, now)
	if err != nil {
		t.Fatalf("custom: %v", err)
	}
	if custom.Days() != 7 {
		t.Fatalf("expected 7 calendar days for Oct 29 to Nov 4, got %d", custom.Days())
	}

	spring := time.Date(2026, 3, 5, 0, 0, 0, 0, loc)
	springEnd := time.Date(2026, 3, 11, 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	springWindow, _ := ResolveWindow(Query{Period: PeriodCustom, From: &spring, To: &springEnd}, now)
	if springWindow.Days() != 7 {
		t.Fatalf("expected 7 calendar days across spring-forward, got %d", springWindow.Days())
	}
}

func TestWindowDays_MinimumOne(t *testing.T) {
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)
	if got := (Window{Start: now, End: now}).Days(); got != 1 {
		t.Fatalf("expected 1 day for empty window, got %d", got)
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod(""); err != nil || p != PeriodWeek {
		t.Fatalf("expected default week, got %q %v", p, err)
	}
	if p, err := ParsePeriod(" Month "); err != nil || p != PeriodMonth {
		t.Fatalf("expected month, got %q %v", p, err)
	}
	if _, err := ParsePeriod("year"); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid period error, got %v", err)
	}
}

func TestServiceGenerate_UsesTrailingWindow(t *testing.T) {
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)
	source := &fakeMealSource{meals: []models.Meal{
		{Calories: f(2100), ProteinG: f(120), FiberG: f(30), CreatedAt: now.Add(-time.Hour)},
	}}
	svc := NewService(source, func() time.Time { return now }, time.UTC)

	report, err := svc.Generate(context.Background(), 1, Query{Period: PeriodMonth})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !source.gotFrom.Equal(now.AddDate(0, 0, -30)) || !source.gotTo.Equal(now) {
		t.Fatalf("unexpected fetch window %s - %s", source.gotFrom, source.gotTo)
	}
	if report.Period != PeriodMonth || report.MealCount != 1 || report.Averages.Calories != 70 {
		t.Fatalf("unexpected report: period=%s meals=%d avg=%d", report.Period, report.MealCount, report.Averages.Calories)
	}
}

func TestServiceGenerate_FetchFailureIsUpstream(t *testing.T) {
	source := &fakeMealSource{err: errors.New("connection refused")}
	svc := NewService(source, nil, time.UTC)

	_, err := svc.Generate(context.Background(), 1, Query{Period: PeriodWeek})
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if apperr.Message(err) != "failed to generate statistics" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
}

func TestServiceGenerate_InvalidCustomSkipsFetch(t *testing.T) {
	source := &fakeMealSource{}
	svc := NewService(source, nil, time.UTC)

	if _, err := svc.Generate(context.Background(), 1, Query{Period: PeriodCustom}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if source.gotCalls != 0 {
		t.Fatalf("expected no fetch for invalid query")
	}
}
