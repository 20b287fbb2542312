package handlers

import (
	"context"
	"net/http"

	"github.com/platewise/platewise-backend/internal/quota"

	"github.com/gin-gonic/gin"
)

// QuotaReader reports a user's analysis allowance.
type QuotaReader interface {
	Status(ctx context.Context, userID uint64) (quota.Status, error)
}

// QuotaFrontHandler serves the caller's AI request quota.
type QuotaFrontHandler struct {
	ledger QuotaReader
}

// NewQuotaFrontHandler constructs a QuotaFrontHandler.
func NewQuotaFrontHandler(ledger QuotaReader) *QuotaFrontHandler {
	return &QuotaFrontHandler{ledger: ledger}
}

// Get returns used, limit, remaining and the window end.
func (h *QuotaFrontHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	status, errStatus := h.ledger.Status(c.Request.Context(), userID)
	if errStatus != nil {
		writeError(c, errStatus)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quota": status})
}
