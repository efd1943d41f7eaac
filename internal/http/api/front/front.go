package front

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/config"
	"github.com/postpilot-cms/postpilot/internal/http/api/front/handlers"
	"github.com/postpilot-cms/postpilot/internal/llm"
	"github.com/postpilot-cms/postpilot/internal/mailer"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/scheduler"
	"github.com/postpilot-cms/postpilot/internal/security"
	"github.com/postpilot-cms/postpilot/internal/usage"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps bundles the services the front realm needs.
type Deps struct {
	JWT          config.JWTConfig
	DefaultQuota int64
	Tracker      *usage.Tracker
	Registry     *llm.Registry
	Publisher    *scheduler.PostPublisher
	Mailer       *mailer.Mailer
	Cache        *redis.Client // optional auth cache, nil disables
}

// RegisterFrontRoutes registers public and authenticated front-end routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, deps Deps) {
	if r == nil || db == nil {
		return
	}

	front := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(db, deps.JWT, deps.Mailer, deps.DefaultQuota)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)
	front.POST("/recover-password", authHandler.RecoverPassword)
	front.POST("/reset-password", authHandler.ResetPassword)

	authed := front.Group("")
	authed.Use(UserAuthMiddleware(db, deps.JWT, deps.Cache))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile", profileHandler.Update)
	authed.PUT("/profile/password", profileHandler.ChangePassword)

	usageHandler := handlers.NewUsageHandler(deps.Tracker)
	authed.GET("/quota", usageHandler.Quota)
	authed.GET("/usage/summary", usageHandler.Summary)
	authed.GET("/usage/records", usageHandler.Records)

	llmHandler := handlers.NewLLMHandler(db, deps.Tracker, deps.Registry)
	authed.POST("/llm/generate-content", llmHandler.GenerateContent)
	authed.POST("/llm/generate-post", llmHandler.GeneratePost)
	authed.POST("/llm/generate-hashtags", llmHandler.GenerateHashtags)
	authed.GET("/llm/providers", llmHandler.Providers)

	postsHandler := handlers.NewPostsHandler(db, deps.Publisher)
	authed.GET("/posts", postsHandler.List)
	authed.POST("/posts", postsHandler.Create)
	authed.GET("/posts/:id", postsHandler.Get)
	authed.PUT("/posts/:id", postsHandler.Update)
	authed.DELETE("/posts/:id", postsHandler.Delete)
	authed.POST("/posts/:id/publish", postsHandler.Publish)

	accountsHandler := handlers.NewSocialAccountsHandler(db)
	authed.GET("/social-accounts", accountsHandler.List)
	authed.POST("/social-accounts", accountsHandler.Create)
	authed.GET("/social-accounts/:id", accountsHandler.Get)
	authed.PUT("/social-accounts/:id", accountsHandler.Update)
	authed.DELETE("/social-accounts/:id", accountsHandler.Delete)

	analyticsHandler := handlers.NewAnalyticsHandler(db)
	authed.GET("/analytics/overview", analyticsHandler.Overview)
	authed.GET("/analytics/engagement-trends", analyticsHandler.EngagementTrends)
	authed.GET("/analytics/platform-performance", analyticsHandler.PlatformPerformance)
	authed.GET("/analytics/hashtag-performance", analyticsHandler.HashtagPerformance)
}

// cachedUser is the auth-cache payload for an authenticated user.
type cachedUser struct {
	ID          uuid.UUID `json:"id"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
}

func (u *cachedUser) MarshalBinary() ([]byte, error) {
	return json.Marshal(u)
}

func (u *cachedUser) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, u)
}

const authCacheTTL = time.Minute

// UserAuthMiddleware validates user JWTs and loads the user into context.
// With a redis client the DB lookup is cached for a short TTL.
func UserAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig, cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheKey := fmt.Sprintf("auth:user:%s", claims.UserID)
		if cache != nil {
			var cached cachedUser
			errCache := cache.Get(c.Request.Context(), cacheKey).Scan(&cached)
			if errCache == nil {
				if !cached.IsActive {
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user inactive"})
					return
				}
				c.Set("userID", cached.ID)
				c.Set("isSuperuser", cached.IsSuperuser)
				c.Next()
				return
			}
			if errCache != redis.Nil {
				log.WithError(errCache).Warn("auth cache read failed")
			}
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, "id = ?", claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if cache != nil {
			entry := cachedUser{ID: user.ID, IsActive: user.IsActive, IsSuperuser: user.IsSuperuser}
			if errCache := cache.Set(c.Request.Context(), cacheKey, &entry, authCacheTTL).Err(); errCache != nil {
				log.WithError(errCache).Warn("auth cache write failed")
			}
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user inactive"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("isSuperuser", user.IsSuperuser)
		c.Next()
	}
}
