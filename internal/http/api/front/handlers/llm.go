package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/llm"
	"github.com/postpilot-cms/postpilot/internal/metrics"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/usage"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Request types recorded in the usage ledger.
const (
	requestTypeContent = "content_generation"
	requestTypePost    = "post_generation"
	requestTypeHashtag = "hashtag_generation"
)

// LLMHandler orchestrates quota-gated completion requests.
type LLMHandler struct {
	db       *gorm.DB
	tracker  *usage.Tracker
	registry *llm.Registry
}

// NewLLMHandler constructs an LLMHandler.
func NewLLMHandler(db *gorm.DB, tracker *usage.Tracker, registry *llm.Registry) *LLMHandler {
	return &LLMHandler{db: db, tracker: tracker, registry: registry}
}

// generate runs the gate, the provider call, and the ledger append for one
// completion request, returning the result when the call was allowed and
// succeeded.
func (h *LLMHandler) generate(c *gin.Context, provider, model, requestType string, req *llm.Request) (*llm.Result, bool) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	// Gate before spending money on the upstream call.
	if !h.tracker.HasQuota(c.Request.Context(), userID) {
		metrics.QuotaDeniedTotal.Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": usage.ErrQuotaExceeded.Error()})
		return nil, false
	}

	result, errGenerate := h.registry.Generate(c.Request.Context(), provider, req)
	if errGenerate != nil {
		if errors.Is(errGenerate, llm.ErrUnsupportedProvider) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported provider"})
			return nil, false
		}
		metrics.RecordLLMCall(provider, model, 0, 0, false)
		// Failed attempts are recorded but never consume quota.
		if errTrack := h.tracker.Track(c.Request.Context(), usage.TrackParams{
			UserID:       userID,
			Provider:     provider,
			Model:        model,
			RequestType:  requestType,
			Success:      false,
			ErrorMessage: errGenerate.Error(),
		}); errTrack != nil && !errors.Is(errTrack, usage.ErrQuotaExceeded) {
			log.WithError(errTrack).Warn("record failed llm call")
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "llm request failed"})
		return nil, false
	}

	metrics.RecordLLMCall(provider, model, result.PromptTokens, result.CompletionTokens, true)
	errTrack := h.tracker.Track(c.Request.Context(), usage.TrackParams{
		UserID:           userID,
		Provider:         provider,
		Model:            model,
		RequestType:      requestType,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		Success:          true,
	})
	if errors.Is(errTrack, usage.ErrQuotaExceeded) {
		// Quota was exhausted between the gate and the ledger append.
		metrics.QuotaDeniedTotal.Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": usage.ErrQuotaExceeded.Error()})
		return nil, false
	}
	if errTrack != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record usage failed"})
		return nil, false
	}
	return result, true
}

func (h *LLMHandler) cost(provider, model string, result *llm.Result) float64 {
	return h.tracker.Prices().Cost(provider, model, result.PromptTokens, result.CompletionTokens)
}

// generateContentRequest defines the request body for raw content generation.
type generateContentRequest struct {
	Prompt      string  `json:"prompt"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// GenerateContent runs a free-form prompt through the selected provider.
func (h *LLMHandler) GenerateContent(c *gin.Context) {
	var body generateContentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing prompt"})
		return
	}
	provider := body.Provider
	if provider == "" {
		provider = "openai"
	}
	model := body.Model
	if model == "" {
		model = "gpt-4"
	}
	maxTokens := body.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	result, ok := h.generate(c, provider, model, requestTypeContent, &llm.Request{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: body.Temperature,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"content":     result.Content,
		"tokens_used": result.PromptTokens + result.CompletionTokens,
		"cost_usd":    h.cost(provider, model, result),
	})
}

// generatePostRequest defines the request body for post generation.
type generatePostRequest struct {
	BusinessDescription string `json:"business_description"`
	ClientAvatars       string `json:"client_avatars"`
	Platform            string `json:"platform"`
	Tone                string `json:"tone"`
	MaxTokens           int    `json:"max_tokens"`
}

// GeneratePost builds a platform-aware prompt and generates a post draft.
// Business context falls back to the user's stored profile.
func (h *LLMHandler) GeneratePost(c *gin.Context) {
	var body generatePostRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	businessDescription := strings.TrimSpace(body.BusinessDescription)
	clientAvatars := strings.TrimSpace(body.ClientAvatars)
	if businessDescription == "" || clientAvatars == "" {
		var user models.User
		if errFind := h.db.WithContext(c.Request.Context()).
			Select("business_description", "client_avatars").
			First(&user, "id = ?", getUserID(c)).Error; errFind == nil {
			if businessDescription == "" {
				businessDescription = user.BusinessDescription
			}
			if clientAvatars == "" {
				clientAvatars = user.ClientAvatars
			}
		}
	}
	if businessDescription == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing business description"})
		return
	}

	platform := body.Platform
	if platform == "" {
		platform = "general"
	}
	tone := body.Tone
	if tone == "" {
		tone = "professional"
	}
	maxTokens := body.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	const provider, model = "openai", "gpt-4"
	result, ok := h.generate(c, provider, model, requestTypePost, &llm.Request{
		Model:     model,
		Prompt:    llm.BuildPostPrompt(businessDescription, clientAvatars, platform, tone, maxTokens),
		MaxTokens: maxTokens,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post_content": result.Content,
		"tokens_used":  result.PromptTokens + result.CompletionTokens,
		"cost_usd":     h.cost(provider, model, result),
	})
}

// generateHashtagsRequest defines the request body for hashtag generation.
type generateHashtagsRequest struct {
	Content   string `json:"content"`
	Platform  string `json:"platform"`
	Count     int    `json:"count"`
	MaxTokens int    `json:"max_tokens"`
}

// GenerateHashtags generates hashtags for a piece of content.
func (h *LLMHandler) GenerateHashtags(c *gin.Context) {
	var body generateHashtagsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing content"})
		return
	}
	platform := body.Platform
	if platform == "" {
		platform = "general"
	}
	count := body.Count
	if count <= 0 {
		count = 10
	}
	maxTokens := body.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}

	const provider, model = "openai", "gpt-3.5-turbo"
	result, ok := h.generate(c, provider, model, requestTypeHashtag, &llm.Request{
		Model:     model,
		Prompt:    llm.BuildHashtagPrompt(content, platform, count),
		MaxTokens: maxTokens,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hashtags":    llm.ParseHashtags(result.Content),
		"tokens_used": result.PromptTokens + result.CompletionTokens,
		"cost_usd":    h.cost(provider, model, result),
	})
}

// Providers lists the configured providers and their models.
func (h *LLMHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.registry.Available()})
}
