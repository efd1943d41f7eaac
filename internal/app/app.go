package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postpilot-cms/postpilot/internal/config"
	"github.com/postpilot-cms/postpilot/internal/db"
	"github.com/postpilot-cms/postpilot/internal/http/api/admin"
	"github.com/postpilot-cms/postpilot/internal/http/api/front"
	"github.com/postpilot-cms/postpilot/internal/llm"
	"github.com/postpilot-cms/postpilot/internal/logging"
	"github.com/postpilot-cms/postpilot/internal/mailer"
	"github.com/postpilot-cms/postpilot/internal/metrics"
	"github.com/postpilot-cms/postpilot/internal/pricing"
	"github.com/postpilot-cms/postpilot/internal/scheduler"
	"github.com/postpilot-cms/postpilot/internal/social"
	"github.com/postpilot-cms/postpilot/internal/usage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the API server with database-backed components and blocks
// until ctx is cancelled or the listener fails.
func RunServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging)

	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if errPing := cache.Ping(ctx).Err(); errPing != nil {
			log.WithError(errPing).Warn("redis unreachable, auth caching disabled")
			cache = nil
		}
	}

	tracker := usage.NewTracker(conn, pricing.Default(), cfg.RecordSuperuserUsage())
	registry := llm.NewRegistry(cfg.Providers)
	mail := mailer.New(cfg.SMTP, cfg.Server.FrontendHost, cfg.JWT.ResetTokenExpiry.Std())
	publisher := scheduler.NewPostPublisher(conn, social.NewPublisher(), cfg.Scheduler.Interval.Std())
	if cfg.Scheduler.Enabled && publisher != nil {
		publisher.Start(ctx)
		log.Infof("post publisher running every %s", cfg.Scheduler.Interval.Std())
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), metrics.Middleware())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	front.RegisterFrontRoutes(engine, conn, front.Deps{
		JWT:          cfg.JWT,
		DefaultQuota: cfg.Quota.DefaultQuota,
		Tracker:      tracker,
		Registry:     registry,
		Publisher:    publisher,
		Mailer:       mail,
		Cache:        cache,
	})
	admin.RegisterAdminRoutes(engine, conn, admin.Deps{
		JWT:          cfg.JWT,
		DefaultQuota: cfg.Quota.DefaultQuota,
		Tracker:      tracker,
		Mailer:       mail,
		Cache:        cache,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srv.Addr)
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case errServe := <-errCh:
		return errServe
	}
}
