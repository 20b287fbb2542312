package ratelimit

import (
	"strconv"
	"strings"
)

// KeyForDecision builds the limiter key for a user's analysis requests, namespaced
// by plan tier so an upgrade starts a fresh counter. An empty key means no limit.
func KeyForDecision(userID uint64, decision Decision) string {
	if userID == 0 || decision.Limit <= 0 || decision.Scope != ScopeUser {
		return ""
	}
	tier := strings.ToLower(strings.TrimSpace(decision.Tier))
	if tier == "" {
		tier = "default"
	}
	return "analysis:" + tier + ":" + strconv.FormatUint(userID, 10)
}
