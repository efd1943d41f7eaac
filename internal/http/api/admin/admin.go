package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postpilot-cms/postpilot/internal/config"
	"github.com/postpilot-cms/postpilot/internal/http/api/admin/handlers"
	"github.com/postpilot-cms/postpilot/internal/http/api/front"
	"github.com/postpilot-cms/postpilot/internal/mailer"
	"github.com/postpilot-cms/postpilot/internal/usage"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps bundles the services the admin realm needs.
type Deps struct {
	JWT          config.JWTConfig
	DefaultQuota int64
	Tracker      *usage.Tracker
	Mailer       *mailer.Mailer
	Cache        *redis.Client // optional auth cache, nil disables
}

// RegisterAdminRoutes registers superuser-only management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, deps Deps) {
	if r == nil || db == nil {
		return
	}

	admin := r.Group("/v0/admin")
	admin.Use(front.UserAuthMiddleware(db, deps.JWT, deps.Cache))
	admin.Use(superuserMiddleware())

	usersHandler := handlers.NewUsersHandler(db, deps.Mailer, deps.DefaultQuota)
	admin.GET("/users", usersHandler.List)
	admin.POST("/users", usersHandler.Create)
	admin.GET("/users/:id", usersHandler.Get)
	admin.PUT("/users/:id", usersHandler.Update)
	admin.DELETE("/users/:id", usersHandler.Delete)

	clientInfoHandler := handlers.NewClientInfoHandler(db)
	admin.GET("/users/:id/client-info", clientInfoHandler.Get)
	admin.PUT("/users/:id/client-info", clientInfoHandler.Update)

	usageHandler := handlers.NewUsageHandler(db, deps.Tracker)
	admin.GET("/users/:id/quota", usageHandler.Quota)
	admin.POST("/users/:id/increment-usage", usageHandler.IncrementUsage)
	admin.GET("/users/:id/usage-summary", usageHandler.UsageSummary)
}

// superuserMiddleware rejects non-superuser callers.
func superuserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get("isSuperuser")
		flag, ok := val.(bool)
		if !exists || !ok || !flag {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "superuser required"})
			return
		}
		c.Next()
	}
}
