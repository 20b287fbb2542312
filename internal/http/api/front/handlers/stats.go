package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/meals"
	"github.com/platewise/platewise-backend/internal/stats"

	"github.com/gin-gonic/gin"
)

// ReportGenerator builds nutrition statistics for a user.
type ReportGenerator interface {
	Generate(ctx context.Context, userID uint64, q stats.Query) (stats.Report, error)
}

// StatsFrontHandler serves nutrition statistics.
type StatsFrontHandler struct {
	stats ReportGenerator
	loc   *time.Location
}

// NewStatsFrontHandler constructs a StatsFrontHandler. Dates are read in loc.
func NewStatsFrontHandler(generator ReportGenerator, loc *time.Location) *StatsFrontHandler {
	if loc == nil {
		loc = time.Local
	}
	return &StatsFrontHandler{stats: generator, loc: loc}
}

// Get returns the report for ?period=week|month|custom. Custom periods take
// from and to as YYYY-MM-DD, both inclusive.
func (h *StatsFrontHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	period, errPeriod := stats.ParsePeriod(c.Query("period"))
	if errPeriod != nil {
		writeError(c, errPeriod)
		return
	}

	query := stats.Query{Period: period}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, errFrom := meals.ParseDate(raw, h.loc)
		if errFrom != nil {
			writeError(c, errFrom)
			return
		}
		query.From = &from
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		toDay, errTo := meals.ParseDate(raw, h.loc)
		if errTo != nil {
			writeError(c, errTo)
			return
		}
		to := toDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
		query.To = &to
	}

	report, errGenerate := h.stats.Generate(c.Request.Context(), userID, query)
	if errGenerate != nil {
		writeError(c, errGenerate)
		return
	}
	c.JSON(http.StatusOK, report)
}
