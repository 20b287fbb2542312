package stats

import (
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"
)

// Period selects the statistics window.
type Period string

const (
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

const (
	weekDays  = 7
	monthDays = 30
	dayLength = 24 * time.Hour
)

// Window is a closed time range [Start, End]. Calendar windows count the dates
// they touch in Start's location; trailing windows count elapsed 24h days.
type Window struct {
	Start    time.Time
	End      time.Time
	Calendar bool
}

// Query describes a statistics request. From and To are required for PeriodCustom only.
type Query struct {
	Period Period
	From   *time.Time
	To     *time.Time
}

// ParsePeriod normalizes a period name. Empty input selects PeriodWeek.
func ParsePeriod(raw string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodCustom:
		return PeriodCustom, nil
	default:
		return "", apperr.Invalid("period must be one of week, month, custom")
	}
}

// ResolveWindow turns a query into a concrete window ending at now for trailing periods.
func ResolveWindow(q Query, now time.Time) (Window, error) {
	switch q.Period {
	case PeriodWeek, "":
		return Window{Start: now.Add(-weekDays * dayLength), End: now}, nil
	case PeriodMonth:
		return Window{Start: now.Add(-monthDays * dayLength), End: now}, nil
	case PeriodCustom:
		if q.From == nil || q.To == nil || q.From.IsZero() || q.To.IsZero() {
			return Window{}, apperr.Invalid("custom period requires both from and to")
		}
		if q.To.Before(*q.From) {
			return Window{}, apperr.Invalid("custom period end is before its start")
		}
		return Window{Start: *q.From, End: *q.To, Calendar: true}, nil
	default:
		return Window{}, apperr.Invalid("period must be one of week, month, custom")
	}
}

// Days returns max(1, ceil(window length in days)), or the number of dates
// covered for calendar windows.
func (w Window) Days() int {
	if w.Calendar {
		return max(1, calendarDays(w.Start, w.End))
	}
	span := w.End.Sub(w.Start)
	days := int(span / dayLength)
	if span%dayLength != 0 {
		days++
	}
	if days < 1 {
		return 1
	}
	return days
}

// calendarDays counts the dates from start through end, inclusive, so DST shifts
// inside the range do not add or drop a day.
func calendarDays(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.In(start.Location()).Date()
	first := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	last := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(last.Sub(first)/dayLength) + 1
}
