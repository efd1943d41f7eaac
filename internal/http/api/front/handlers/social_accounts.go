package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SocialAccountsHandler handles linked platform account CRUD.
type SocialAccountsHandler struct {
	db *gorm.DB
}

// NewSocialAccountsHandler constructs a SocialAccountsHandler.
func NewSocialAccountsHandler(db *gorm.DB) *SocialAccountsHandler {
	return &SocialAccountsHandler{db: db}
}

// metadataIsObject rejects scalar and array payloads. Platform profile
// metadata is stored and returned verbatim, so the column must hold an
// object for response consumers to merge into.
func metadataIsObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}

func validPlatform(platform string) bool {
	switch platform {
	case models.PlatformFacebook, models.PlatformInstagram, models.PlatformTikTok:
		return true
	}
	return false
}

// accountResponse hides tokens from list and get responses.
func accountResponse(a *models.SocialAccount) gin.H {
	metadata := json.RawMessage(a.Metadata)
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}
	return gin.H{
		"id":           a.ID,
		"platform":     a.Platform,
		"account_id":   a.AccountID,
		"account_name": a.AccountName,
		"expires_at":   a.ExpiresAt,
		"metadata":     metadata,
		"created_at":   a.CreatedAt,
		"updated_at":   a.UpdatedAt,
	}
}

// List returns the user's linked accounts.
func (h *SocialAccountsHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var accounts []models.SocialAccount
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(accounts))
	for i := range accounts {
		out = append(out, accountResponse(&accounts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

// linkAccountRequest defines the request body for linking an account.
type linkAccountRequest struct {
	Platform     string          `json:"platform"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	AccountID    string          `json:"account_id"`
	AccountName  string          `json:"account_name"`
	Metadata     json.RawMessage `json:"metadata"` // Raw platform profile payload, stored as-is.
}

// Create links a platform account. One account per platform per user.
func (h *SocialAccountsHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body linkAccountRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !validPlatform(body.Platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform"})
		return
	}
	accessToken := strings.TrimSpace(body.AccessToken)
	accountID := strings.TrimSpace(body.AccountID)
	if accessToken == "" || accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing access_token or account_id"})
		return
	}

	var exists models.SocialAccount
	errCheck := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND platform = ?", userID, body.Platform).
		First(&exists).Error
	if errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "platform already linked"})
		return
	} else if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	metadata := datatypes.JSON("{}")
	if len(body.Metadata) > 0 {
		if !metadataIsObject(body.Metadata) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "metadata must be a json object"})
			return
		}
		metadata = datatypes.JSON(body.Metadata)
	}

	account := models.SocialAccount{
		UserID:       userID,
		Platform:     body.Platform,
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(body.RefreshToken),
		ExpiresAt:    body.ExpiresAt,
		AccountID:    accountID,
		AccountName:  strings.TrimSpace(body.AccountName),
		Metadata:     metadata,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&account).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "link account failed"})
		return
	}
	c.JSON(http.StatusCreated, accountResponse(&account))
}

func (h *SocialAccountsHandler) loadOwned(c *gin.Context) (*models.SocialAccount, bool) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	accountID, errParse := uuid.Parse(c.Param("id"))
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return nil, false
	}

	var account models.SocialAccount
	errFind := h.db.WithContext(c.Request.Context()).
		First(&account, "id = ? AND user_id = ?", accountID, userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	return &account, true
}

// Get returns a single linked account.
func (h *SocialAccountsHandler) Get(c *gin.Context) {
	account, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, accountResponse(account))
}

// updateAccountRequest defines the request body for token refreshes.
type updateAccountRequest struct {
	AccessToken  *string         `json:"access_token"`
	RefreshToken *string         `json:"refresh_token"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	AccountName  *string         `json:"account_name"`
	Metadata     json.RawMessage `json:"metadata"`
}

// Update refreshes tokens or metadata on a linked account.
func (h *SocialAccountsHandler) Update(c *gin.Context) {
	account, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var body updateAccountRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]interface{}{}
	if body.AccessToken != nil {
		token := strings.TrimSpace(*body.AccessToken)
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing access_token"})
			return
		}
		updates["access_token"] = token
	}
	if body.RefreshToken != nil {
		updates["refresh_token"] = strings.TrimSpace(*body.RefreshToken)
	}
	if body.ExpiresAt != nil {
		updates["expires_at"] = body.ExpiresAt
	}
	if body.AccountName != nil {
		updates["account_name"] = strings.TrimSpace(*body.AccountName)
	}
	if len(body.Metadata) > 0 {
		if !metadataIsObject(body.Metadata) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "metadata must be a json object"})
			return
		}
		updates["metadata"] = datatypes.JSON(body.Metadata)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if errSave := h.db.WithContext(c.Request.Context()).Model(account).Updates(updates).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update account failed"})
		return
	}
	c.JSON(http.StatusOK, accountResponse(account))
}

// Delete unlinks a platform account.
func (h *SocialAccountsHandler) Delete(c *gin.Context) {
	account, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(account).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlink account failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account unlinked"})
}
