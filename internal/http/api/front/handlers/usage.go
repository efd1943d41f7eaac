package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/usage"
)

// UsageHandler exposes the user's quota state and usage ledger.
type UsageHandler struct {
	tracker *usage.Tracker
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(tracker *usage.Tracker) *UsageHandler {
	return &UsageHandler{tracker: tracker}
}

// Quota returns the current user's quota state.
func (h *UsageHandler) Quota(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	info, errQuota := h.tracker.QuotaFor(c.Request.Context(), userID)
	if errQuota != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quota":        info.Quota,
		"usage_count":  info.UsageCount,
		"remaining":    info.Remaining,
		"has_quota":    info.HasQuota,
		"is_superuser": info.IsSuperuser,
	})
}

// Summary returns aggregate usage for the current user.
func (h *UsageHandler) Summary(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, errSummarize := h.tracker.Summarize(c.Request.Context(), userID)
	if errSummarize != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_requests":       summary.TotalRequests,
		"total_tokens":         summary.TotalTokens,
		"total_cost_usd":       summary.TotalCostUSD,
		"requests_by_provider": summary.RequestsByProvider,
		"requests_by_type":     summary.RequestsByType,
	})
}

// Records returns a page of the current user's usage ledger, newest first.
func (h *UsageHandler) Records(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	filter := usage.RecordFilter{
		Provider:    c.Query("provider"),
		RequestType: c.Query("request_type"),
		Limit:       queryInt(c, "limit", 100),
		Offset:      queryInt(c, "offset", 0),
	}
	records, total, errRecords := h.tracker.Records(c.Request.Context(), userID, filter)
	if errRecords != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"records": records,
	})
}
