package handlers

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
	"gorm.io/gorm"
)

// AnalyticsHandler aggregates engagement metrics over the user's posts.
type AnalyticsHandler struct {
	db *gorm.DB
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(db *gorm.DB) *AnalyticsHandler {
	return &AnalyticsHandler{db: db}
}

// platformColumns maps each platform to its flag and post-id columns.
// Queries go through this table, never through dynamic column names.
var platformColumns = []struct {
	name      string
	flagCol   string
	postIDCol string
}{
	{models.PlatformFacebook, "to_facebook", "facebook_post_id"},
	{models.PlatformInstagram, "to_instagram", "instagram_post_id"},
	{models.PlatformTikTok, "to_tiktok", "tiktok_post_id"},
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Overview returns post counts, status breakdown, and engagement totals.
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx := c.Request.Context()
	owned := h.db.WithContext(ctx).Model(&models.Post{}).Where("owner_id = ?", userID)

	var totalPosts int64
	if errCount := owned.Session(&gorm.Session{}).Count(&totalPosts).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	statusBreakdown := map[string]int64{
		models.PostStatusScheduled: 0,
		models.PostStatusPosted:    0,
		models.PostStatusFailed:    0,
	}
	var statusRows []struct {
		Status string
		Count  int64
	}
	if errScan := owned.Session(&gorm.Session{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusRows).Error; errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	for _, row := range statusRows {
		statusBreakdown[row.Status] = row.Count
	}

	var totals struct {
		TotalEngagement   int64
		AvgEngagementRate float64
	}
	if errScan := owned.Session(&gorm.Session{}).
		Select("COALESCE(SUM(likes + comments + shares), 0) as total_engagement, COALESCE(AVG(engagement_rate), 0) as avg_engagement_rate").
		Scan(&totals).Error; errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	platformBreakdown := map[string]int64{}
	for _, platform := range platformColumns {
		var count int64
		if errCount := owned.Session(&gorm.Session{}).
			Where(platform.flagCol+" = ?", true).
			Count(&count).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		platformBreakdown[platform.name] = count
	}

	c.JSON(http.StatusOK, gin.H{
		"total_posts":         totalPosts,
		"status_breakdown":    statusBreakdown,
		"total_engagement":    totals.TotalEngagement,
		"avg_engagement_rate": round2(totals.AvgEngagementRate),
		"platform_breakdown":  platformBreakdown,
	})
}

// EngagementTrends returns daily engagement sums over the requested window.
func (h *AnalyticsHandler) EngagementTrends(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	days := queryInt(c, "days", 30)
	if days <= 0 || days > 365 {
		days = 30
	}
	startDate := time.Now().UTC().AddDate(0, 0, -days)

	var rows []struct {
		Date              string
		Likes             int64
		Comments          int64
		Shares            int64
		Views             int64
		AvgEngagementRate float64
	}
	errScan := h.db.WithContext(c.Request.Context()).
		Model(&models.Post{}).
		Select("DATE(posted_at) as date, "+
			"COALESCE(SUM(likes), 0) as likes, "+
			"COALESCE(SUM(comments), 0) as comments, "+
			"COALESCE(SUM(shares), 0) as shares, "+
			"COALESCE(SUM(views), 0) as views, "+
			"COALESCE(AVG(engagement_rate), 0) as avg_engagement_rate").
		Where("owner_id = ? AND posted_at >= ? AND status = ?", userID, startDate, models.PostStatusPosted).
		Group("DATE(posted_at)").
		Order("DATE(posted_at) ASC").
		Scan(&rows).Error
	if errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	trends := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		trends = append(trends, gin.H{
			"date":                row.Date,
			"likes":               row.Likes,
			"comments":            row.Comments,
			"shares":              row.Shares,
			"views":               row.Views,
			"avg_engagement_rate": round2(row.AvgEngagementRate),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"period_days": days,
		"trends":      trends,
	})
}

// PlatformPerformance returns engagement metrics per published platform.
func (h *AnalyticsHandler) PlatformPerformance(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	performance := gin.H{}
	for _, platform := range platformColumns {
		var row struct {
			TotalPosts        int64
			TotalLikes        int64
			TotalComments     int64
			TotalShares       int64
			AvgEngagementRate float64
		}
		errScan := h.db.WithContext(c.Request.Context()).
			Model(&models.Post{}).
			Select("COUNT(*) as total_posts, "+
				"COALESCE(SUM(likes), 0) as total_likes, "+
				"COALESCE(SUM(comments), 0) as total_comments, "+
				"COALESCE(SUM(shares), 0) as total_shares, "+
				"COALESCE(AVG(engagement_rate), 0) as avg_engagement_rate").
			Where("owner_id = ?", userID).
			Where(platform.flagCol+" = ?", true).
			Where(platform.postIDCol+" <> ''").
			Scan(&row).Error
		if errScan != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		performance[platform.name] = gin.H{
			"total_posts":         row.TotalPosts,
			"total_likes":         row.TotalLikes,
			"total_comments":      row.TotalComments,
			"total_shares":        row.TotalShares,
			"total_engagement":    row.TotalLikes + row.TotalComments + row.TotalShares,
			"avg_engagement_rate": round2(row.AvgEngagementRate),
		}
	}
	c.JSON(http.StatusOK, performance)
}

type hashtagStats struct {
	Count             int64   `json:"count"`
	TotalLikes        int64   `json:"total_likes"`
	TotalComments     int64   `json:"total_comments"`
	TotalShares       int64   `json:"total_shares"`
	TotalEngagement   int64   `json:"total_engagement"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
}

// HashtagPerformance aggregates engagement per hashtag across posted posts.
func (h *AnalyticsHandler) HashtagPerformance(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	limit := queryInt(c, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var posts []models.Post
	errFind := h.db.WithContext(c.Request.Context()).
		Select("hashtags", "likes", "comments", "shares", "engagement_rate").
		Where("owner_id = ? AND hashtags <> '' AND status = ?", userID, models.PostStatusPosted).
		Find(&posts).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	stats := map[string]*hashtagStats{}
	rateSums := map[string]float64{}
	for i := range posts {
		for _, raw := range strings.Split(posts[i].Hashtags, ",") {
			tag := strings.TrimSpace(raw)
			if tag == "" {
				continue
			}
			entry, ok := stats[tag]
			if !ok {
				entry = &hashtagStats{}
				stats[tag] = entry
			}
			entry.Count++
			entry.TotalLikes += posts[i].Likes
			entry.TotalComments += posts[i].Comments
			entry.TotalShares += posts[i].Shares
			rateSums[tag] += posts[i].EngagementRate
		}
	}

	type rankedHashtag struct {
		Hashtag string `json:"hashtag"`
		hashtagStats
	}
	ranked := make([]rankedHashtag, 0, len(stats))
	for tag, entry := range stats {
		entry.TotalEngagement = entry.TotalLikes + entry.TotalComments + entry.TotalShares
		entry.AvgEngagementRate = round2(rateSums[tag] / float64(entry.Count))
		ranked = append(ranked, rankedHashtag{Hashtag: tag, hashtagStats: *entry})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].TotalEngagement > ranked[j].TotalEngagement
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"top_hashtags":          ranked,
		"total_unique_hashtags": len(stats),
	})
}
