package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postpilot-cms/postpilot/internal/models"
	"gorm.io/gorm"
)

func newAnalyticsRouter(conn *gorm.DB, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAnalyticsHandler(conn)
	router := gin.New()
	router.Use(withAuthedUser(user.ID, user.IsSuperuser))
	router.GET("/analytics/overview", h.Overview)
	router.GET("/analytics/engagement-trends", h.EngagementTrends)
	router.GET("/analytics/platform-performance", h.PlatformPerformance)
	router.GET("/analytics/hashtag-performance", h.HashtagPerformance)
	return router
}

func seedAnalyticsPosts(t *testing.T, conn *gorm.DB, owner *models.User) {
	t.Helper()
	postedAt := time.Now().UTC().Add(-24 * time.Hour)
	posts := []models.Post{
		{
			OwnerID: owner.ID, Text: "hit", Hashtags: "#coffee, #morning",
			ScheduledTime: postedAt, Status: models.PostStatusPosted, PostedAt: &postedAt,
			ToFacebook: true, FacebookPostID: "fb-1",
			Likes: 100, Comments: 20, Shares: 10, Views: 1000, EngagementRate: 13.0,
		},
		{
			OwnerID: owner.ID, Text: "miss", Hashtags: "#coffee",
			ScheduledTime: postedAt, Status: models.PostStatusPosted, PostedAt: &postedAt,
			ToFacebook: true, FacebookPostID: "fb-2", ToInstagram: true, InstagramPostID: "ig-1",
			Likes: 10, Comments: 2, Shares: 0, Views: 200, EngagementRate: 6.0,
		},
		{
			OwnerID: owner.ID, Text: "pending",
			ScheduledTime: time.Now().UTC().Add(time.Hour), Status: models.PostStatusScheduled,
			ToFacebook: true,
		},
	}
	for i := range posts {
		if errCreate := conn.Create(&posts[i]).Error; errCreate != nil {
			t.Fatalf("create post: %v", errCreate)
		}
	}
}

func TestAnalyticsOverview(t *testing.T) {
	conn := setupHandlerDB(t)
	owner := seedHandlerUser(t, conn, "stats@example.com", 10)
	seedAnalyticsPosts(t, conn, owner)

	router := newAnalyticsRouter(conn, owner)
	w := doJSON(router, http.MethodGet, "/analytics/overview", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		TotalPosts        int64            `json:"total_posts"`
		StatusBreakdown   map[string]int64 `json:"status_breakdown"`
		TotalEngagement   int64            `json:"total_engagement"`
		PlatformBreakdown map[string]int64 `json:"platform_breakdown"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.TotalPosts != 3 {
		t.Fatalf("expected 3 posts, got %d", resp.TotalPosts)
	}
	if resp.StatusBreakdown["posted"] != 2 || resp.StatusBreakdown["scheduled"] != 1 || resp.StatusBreakdown["failed"] != 0 {
		t.Fatalf("unexpected status breakdown %v", resp.StatusBreakdown)
	}
	if resp.TotalEngagement != 142 {
		t.Fatalf("expected total engagement 142, got %d", resp.TotalEngagement)
	}
	if resp.PlatformBreakdown["facebook"] != 3 || resp.PlatformBreakdown["instagram"] != 1 {
		t.Fatalf("unexpected platform breakdown %v", resp.PlatformBreakdown)
	}
}

func TestAnalyticsEngagementTrends(t *testing.T) {
	conn := setupHandlerDB(t)
	owner := seedHandlerUser(t, conn, "trends@example.com", 10)
	seedAnalyticsPosts(t, conn, owner)

	router := newAnalyticsRouter(conn, owner)
	w := doJSON(router, http.MethodGet, "/analytics/engagement-trends?days=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		PeriodDays int `json:"period_days"`
		Trends     []struct {
			Date  string `json:"date"`
			Likes int64  `json:"likes"`
		} `json:"trends"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.PeriodDays != 7 {
		t.Fatalf("expected period_days=7, got %d", resp.PeriodDays)
	}
	if len(resp.Trends) != 1 {
		t.Fatalf("expected 1 trend bucket, got %d", len(resp.Trends))
	}
	if resp.Trends[0].Likes != 110 {
		t.Fatalf("expected 110 likes in the bucket, got %d", resp.Trends[0].Likes)
	}
}

func TestAnalyticsPlatformPerformance(t *testing.T) {
	conn := setupHandlerDB(t)
	owner := seedHandlerUser(t, conn, "platforms@example.com", 10)
	seedAnalyticsPosts(t, conn, owner)

	router := newAnalyticsRouter(conn, owner)
	w := doJSON(router, http.MethodGet, "/analytics/platform-performance", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]struct {
		TotalPosts      int64 `json:"total_posts"`
		TotalEngagement int64 `json:"total_engagement"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp["facebook"].TotalPosts != 2 || resp["facebook"].TotalEngagement != 142 {
		t.Fatalf("unexpected facebook stats %+v", resp["facebook"])
	}
	if resp["instagram"].TotalPosts != 1 || resp["instagram"].TotalEngagement != 12 {
		t.Fatalf("unexpected instagram stats %+v", resp["instagram"])
	}
	if resp["tiktok"].TotalPosts != 0 {
		t.Fatalf("unexpected tiktok stats %+v", resp["tiktok"])
	}
}

func TestAnalyticsHashtagPerformance(t *testing.T) {
	conn := setupHandlerDB(t)
	owner := seedHandlerUser(t, conn, "hashtags@example.com", 10)
	seedAnalyticsPosts(t, conn, owner)

	router := newAnalyticsRouter(conn, owner)
	w := doJSON(router, http.MethodGet, "/analytics/hashtag-performance", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		TopHashtags []struct {
			Hashtag         string `json:"hashtag"`
			Count           int64  `json:"count"`
			TotalEngagement int64  `json:"total_engagement"`
		} `json:"top_hashtags"`
		TotalUniqueHashtags int `json:"total_unique_hashtags"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.TotalUniqueHashtags != 2 {
		t.Fatalf("expected 2 unique hashtags, got %d", resp.TotalUniqueHashtags)
	}
	if len(resp.TopHashtags) != 2 || resp.TopHashtags[0].Hashtag != "#coffee" {
		t.Fatalf("expected #coffee ranked first, got %+v", resp.TopHashtags)
	}
	if resp.TopHashtags[0].Count != 2 || resp.TopHashtags[0].TotalEngagement != 142 {
		t.Fatalf("unexpected #coffee stats %+v", resp.TopHashtags[0])
	}
}
