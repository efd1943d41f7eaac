package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/postpilot-cms/postpilot/internal/db"
	"github.com/postpilot-cms/postpilot/internal/mailer"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UsersHandler handles admin user management.
type UsersHandler struct {
	db           *gorm.DB
	mailer       *mailer.Mailer
	defaultQuota int64
}

// NewUsersHandler constructs a UsersHandler.
func NewUsersHandler(db *gorm.DB, m *mailer.Mailer, defaultQuota int64) *UsersHandler {
	return &UsersHandler{db: db, mailer: m, defaultQuota: defaultQuota}
}

// List returns a page of users.
func (h *UsersHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := queryInt(c, "skip", 0)
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		query = query.Where(
			dbutil.CaseInsensitiveLikeExpr(h.db, "email")+" OR "+dbutil.CaseInsensitiveLikeExpr(h.db, "full_name"),
			pattern, pattern,
		)
	}

	var total int64
	if errCount := query.Session(&gorm.Session{}).Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var users []models.User
	if errFind := query.Session(&gorm.Session{}).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "users": out})
}

// createUserRequest defines the request body for admin user creation.
type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	IsSuperuser bool   `json:"is_superuser"`
	Quota       *int64 `json:"quota"`
}

// Create provisions a user and mails them their initial credentials.
func (h *UsersHandler) Create(c *gin.Context) {
	var body createUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	if email == "" || len(password) < security.MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or short password"})
		return
	}

	var exists models.User
	errCheck := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&exists).Error
	if errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	} else if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	quota := h.defaultQuota
	if body.Quota != nil && *body.Quota >= 0 {
		quota = *body.Quota
	}
	user := models.User{
		Email:          email,
		HashedPassword: hash,
		FullName:       strings.TrimSpace(body.FullName),
		IsActive:       true,
		IsSuperuser:    body.IsSuperuser,
		Quota:          quota,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	if errMail := h.mailer.SendNewAccount(user.Email, password); errMail != nil {
		log.WithError(errMail).Warn("new account mail failed")
	}
	c.JSON(http.StatusCreated, userResponse(&user))
}

// Get returns a single user.
func (h *UsersHandler) Get(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

// updateUserRequest defines the request body for admin user updates.
type updateUserRequest struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
	Quota       *int64  `json:"quota"`
}

// Update modifies a user's account fields.
func (h *UsersHandler) Update(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}

	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]interface{}{}
	if body.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*body.Email))
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
			return
		}
		var exists models.User
		errCheck := h.db.WithContext(c.Request.Context()).
			Where("email = ? AND id <> ?", email, user.ID).
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
	if body.Password != nil {
		password := strings.TrimSpace(*body.Password)
		if len(password) < security.MinPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}
		hash, errHash := security.HashPassword(password)
		if errHash != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
			return
		}
		updates["hashed_password"] = hash
	}
	if body.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*body.FullName)
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}
	if body.IsSuperuser != nil {
		updates["is_superuser"] = *body.IsSuperuser
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update user failed"})
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

// Delete removes a user. Their usage ledger rows are kept for accounting.
func (h *UsersHandler) Delete(c *gin.Context) {
	user, ok := loadUserByParam(c, h.db)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(user).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete user failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
