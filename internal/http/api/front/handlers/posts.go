package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/scheduler"
	"gorm.io/gorm"
)

// PostsHandler handles post CRUD and manual publishing.
type PostsHandler struct {
	db        *gorm.DB
	publisher *scheduler.PostPublisher
}

// NewPostsHandler constructs a PostsHandler.
func NewPostsHandler(db *gorm.DB, publisher *scheduler.PostPublisher) *PostsHandler {
	return &PostsHandler{db: db, publisher: publisher}
}

func (h *PostsHandler) loadOwned(c *gin.Context) (*models.Post, bool) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	postID, errParse := uuid.Parse(c.Param("id"))
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return nil, false
	}

	var post models.Post
	errFind := h.db.WithContext(c.Request.Context()).
		First(&post, "id = ? AND owner_id = ?", postID, userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	return &post, true
}

// List returns the user's posts, newest scheduled first.
func (h *PostsHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := queryInt(c, "limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Post{}).
		Where("owner_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var posts []models.Post
	if errFind := query.Order("scheduled_time DESC").Limit(limit).Offset(offset).Find(&posts).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "posts": posts})
}

// createPostRequest defines the request body for post creation.
type createPostRequest struct {
	MediaURL      string     `json:"media_url"`
	Text          string     `json:"text"`
	Hashtags      string     `json:"hashtags"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	ToFacebook    *bool      `json:"to_facebook"`
	ToInstagram   *bool      `json:"to_instagram"`
	ToTikTok      *bool      `json:"to_tiktok"`
}

// Create schedules a new post.
func (h *PostsHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createPostRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	text := strings.TrimSpace(body.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing text"})
		return
	}
	if body.ScheduledTime == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing scheduled_time"})
		return
	}

	post := models.Post{
		OwnerID:       userID,
		MediaURL:      strings.TrimSpace(body.MediaURL),
		Text:          text,
		Hashtags:      strings.TrimSpace(body.Hashtags),
		ScheduledTime: body.ScheduledTime.UTC(),
		ToFacebook:    true,
		ToInstagram:   true,
		ToTikTok:      true,
		Status:        models.PostStatusScheduled,
	}
	if body.ToFacebook != nil {
		post.ToFacebook = *body.ToFacebook
	}
	if body.ToInstagram != nil {
		post.ToInstagram = *body.ToInstagram
	}
	if body.ToTikTok != nil {
		post.ToTikTok = *body.ToTikTok
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&post).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create post failed"})
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Get returns a single post owned by the user.
func (h *PostsHandler) Get(c *gin.Context) {
	post, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, post)
}

// updatePostRequest defines the request body for post updates.
type updatePostRequest struct {
	MediaURL      *string    `json:"media_url"`
	Text          *string    `json:"text"`
	Hashtags      *string    `json:"hashtags"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	ToFacebook    *bool      `json:"to_facebook"`
	ToInstagram   *bool      `json:"to_instagram"`
	ToTikTok      *bool      `json:"to_tiktok"`
}

// Update modifies a scheduled post. Posts that already went out are immutable.
func (h *PostsHandler) Update(c *gin.Context) {
	post, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if post.Status != models.PostStatusScheduled {
		c.JSON(http.StatusConflict, gin.H{"error": "only scheduled posts can be updated"})
		return
	}

	var body updatePostRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]interface{}{}
	if body.MediaURL != nil {
		updates["media_url"] = strings.TrimSpace(*body.MediaURL)
	}
	if body.Text != nil {
		text := strings.TrimSpace(*body.Text)
		if text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing text"})
			return
		}
		updates["text"] = text
	}
	if body.Hashtags != nil {
		updates["hashtags"] = strings.TrimSpace(*body.Hashtags)
	}
	if body.ScheduledTime != nil {
		updates["scheduled_time"] = body.ScheduledTime.UTC()
	}
	if body.ToFacebook != nil {
		updates["to_facebook"] = *body.ToFacebook
	}
	if body.ToInstagram != nil {
		updates["to_instagram"] = *body.ToInstagram
	}
	if body.ToTikTok != nil {
		updates["to_tiktok"] = *body.ToTikTok
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if errSave := h.db.WithContext(c.Request.Context()).Model(post).Updates(updates).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update post failed"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete removes a post owned by the user.
func (h *PostsHandler) Delete(c *gin.Context) {
	post, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(post).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete post failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// Publish pushes a post to its flagged platforms immediately.
func (h *PostsHandler) Publish(c *gin.Context) {
	post, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if post.Status == models.PostStatusPosted {
		c.JSON(http.StatusConflict, gin.H{"error": "post already published"})
		return
	}

	results := h.publisher.PublishPost(c.Request.Context(), post)

	platforms := make([]gin.H, 0, len(results))
	for _, res := range results {
		entry := gin.H{"platform": res.Platform, "post_id": res.PostID}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		}
		platforms = append(platforms, entry)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    post.Status,
		"posted_at": post.PostedAt,
		"platforms": platforms,
	})
}
