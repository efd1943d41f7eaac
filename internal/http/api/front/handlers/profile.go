package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/security"
	"gorm.io/gorm"
)

// ProfileHandler handles user profile endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// Get returns the current user's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                   user.ID,
		"email":                user.Email,
		"full_name":            user.FullName,
		"is_active":            user.IsActive,
		"is_superuser":         user.IsSuperuser,
		"business_description": user.BusinessDescription,
		"client_avatars":       user.ClientAvatars,
		"created_at":           user.CreatedAt,
		"updated_at":           user.UpdatedAt,
	})
}

// updateProfileRequest defines the request body for profile updates.
type updateProfileRequest struct {
	FullName            *string `json:"full_name"`
	Email               *string `json:"email"`
	BusinessDescription *string `json:"business_description"`
	ClientAvatars       *string `json:"client_avatars"`
}

// Update modifies the current user's profile fields.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]interface{}{}
	if body.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*body.FullName)
	}
	if body.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*body.Email))
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
			return
		}
		var exists models.User
		errCheck := h.db.WithContext(c.Request.Context()).
			Where("email = ? AND id <> ?", email, userID).
			First(&exists).Error
		if errCheck == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		} else if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		updates["email"] = email
	}
	if body.BusinessDescription != nil {
		updates["business_description"] = strings.TrimSpace(*body.BusinessDescription)
	}
	if body.ClientAvatars != nil {
		updates["client_avatars"] = strings.TrimSpace(*body.ClientAvatars)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if errSave := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update profile failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// changePasswordRequest defines the request body for password changes.
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword verifies and updates the user's password.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	oldPassword := strings.TrimSpace(body.OldPassword)
	newPassword := strings.TrimSpace(body.NewPassword)
	if oldPassword == "" || len(newPassword) < security.MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or short password"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !security.CheckPassword(user.HashedPassword, oldPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect password"})
		return
	}

	hash, errHash := security.HashPassword(newPassword)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	if errSave := h.db.WithContext(c.Request.Context()).
		Model(&user).
		Update("hashed_password", hash).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update password failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
