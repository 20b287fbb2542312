package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/platewise/platewise-backend/internal/apperr"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UserIDKey is the gin context key holding the authenticated user ID.
const UserIDKey = "userID"

// GetUserID returns the authenticated user ID, or 0 when absent.
func GetUserID(c *gin.Context) uint64 {
	if c == nil {
		return 0
	}
	return c.GetUint64(UserIDKey)
}

// writeError renders err as {"error": message, "code": kind}.
func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code := string(apperr.KindOf(err))
	if code == "" {
		code = "internal"
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"path":    c.FullPath(),
			"user_id": GetUserID(c),
		}).Error("front: request failed")
	}
	c.JSON(status, gin.H{"error": apperr.Message(err), "code": code})
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": string(apperr.KindInvalid)})
		return 0, false
	}
	return id, true
}

func requireUser(c *gin.Context) (uint64, bool) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return userID, true
}
