package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/usage"
	"gorm.io/gorm"
)

// UsageHandler exposes per-user quota state and usage aggregates to admins.
type UsageHandler struct {
	db      *gorm.DB
	tracker *usage.Tracker
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(db *gorm.DB, tracker *usage.Tracker) *UsageHandler {
	return &UsageHandler{db: db, tracker: tracker}
}

// Quota returns a user's quota state.
func (h *UsageHandler) Quota(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}
	info, errQuota := h.tracker.QuotaFor(c.Request.Context(), user.ID)
	if errQuota != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      user.ID,
		"quota":        info.Quota,
		"usage_count":  info.UsageCount,
		"remaining":    info.Remaining,
		"has_quota":    info.HasQuota,
		"is_superuser": info.IsSuperuser,
	})
}

// IncrementUsage consumes one unit of a user's quota. Superusers are never
// incremented.
func (h *UsageHandler) IncrementUsage(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}
	if user.IsSuperuser {
		c.JSON(http.StatusOK, gin.H{
			"user_id":     user.ID,
			"usage_count": user.UsageCount,
			"incremented": false,
		})
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ? AND usage_count < quota", user.ID).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": usage.ErrQuotaExceeded.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     user.ID,
		"usage_count": user.UsageCount + 1,
		"incremented": true,
	})
}

// UsageSummary returns a user's aggregate LLM usage.
func (h *UsageHandler) UsageSummary(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}
	summary, errSummarize := h.tracker.Summarize(c.Request.Context(), user.ID)
	if errSummarize != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":              user.ID,
		"total_requests":       summary.TotalRequests,
		"total_tokens":         summary.TotalTokens,
		"total_cost_usd":       summary.TotalCostUSD,
		"requests_by_provider": summary.RequestsByProvider,
		"requests_by_type":     summary.RequestsByType,
	})
}
