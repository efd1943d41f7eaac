package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClientInfoHandler manages the prompt-context profile an admin maintains
// for each client account.
type ClientInfoHandler struct {
	db *gorm.DB
}

// NewClientInfoHandler constructs a ClientInfoHandler.
func NewClientInfoHandler(db *gorm.DB) *ClientInfoHandler {
	return &ClientInfoHandler{db: db}
}

// Get returns a user's client profile and quota settings.
func (h *ClientInfoHandler) Get(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                   user.ID,
		"email":                user.Email,
		"business_description": user.BusinessDescription,
		"client_avatars":       user.ClientAvatars,
		"quota":                user.Quota,
		"usage_count":          user.UsageCount,
	})
}

// updateClientInfoRequest defines the request body for client profile updates.
type updateClientInfoRequest struct {
	BusinessDescription *string `json:"business_description"`
	ClientAvatars       *string `json:"client_avatars"`
	Quota               *int64  `json:"quota"`
}

// Update modifies a user's client profile or quota.
func (h *ClientInfoHandler) Update(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}

	var body updateClientInfoRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]interface{}{}
	if body.BusinessDescription != nil {
		updates["business_description"] = strings.TrimSpace(*body.BusinessDescription)
	}
	if body.ClientAvatars != nil {
		updates["client_avatars"] = strings.TrimSpace(*body.ClientAvatars)
	}
	if body.Quota != nil {
		if *body.Quota < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quota must be non-negative"})
			return
		}
		updates["quota"] = *body.Quota
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if errSave := h.db.WithContext(c.Request.Context()).Model(user).Updates(updates).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update client info failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                   user.ID,
		"business_description": user.BusinessDescription,
		"client_avatars":       user.ClientAvatars,
		"quota":                user.Quota,
	})
}
