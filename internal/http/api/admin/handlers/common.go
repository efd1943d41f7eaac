package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
	"gorm.io/gorm"
)

// loadUserByParam fetches the user named by the :id path parameter.
func loadUserByParam(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	userID, errParse := uuid.Parse(c.Param("id"))
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return nil, false
	}

	var user models.User
	errFind := db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	return &user, true
}

// queryInt parses an integer query parameter with a default.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, errParse := strconv.Atoi(raw)
	if errParse != nil {
		return def
	}
	return n
}

// userResponse serializes a user for admin responses.
func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":                   u.ID,
		"email":                u.Email,
		"full_name":            u.FullName,
		"is_active":            u.IsActive,
		"is_superuser":         u.IsSuperuser,
		"quota":                u.Quota,
		"usage_count":          u.UsageCount,
		"business_description": u.BusinessDescription,
		"client_avatars":       u.ClientAvatars,
		"created_at":           u.CreatedAt,
		"updated_at":           u.UpdatedAt,
	}
}
