// Package scheduler runs the background loop that publishes due posts.
package scheduler

import (
	"context"
	"time"

	"github.com/postpilot-cms/postpilot/internal/metrics"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/social"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultScanInterval = time.Minute
	maxPostsPerRun      = 100
)

// PostPublisher periodically scans for scheduled posts whose time has come
// and publishes them to their flagged platforms.
type PostPublisher struct {
	db        *gorm.DB
	publisher *social.Publisher
	interval  time.Duration
}

func NewPostPublisher(db *gorm.DB, publisher *social.Publisher, interval time.Duration) *PostPublisher {
	if db == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultScanInterval
	}
	return &PostPublisher{
		db:        db,
		publisher: publisher,
		interval:  interval,
	}
}

// Start launches the publish loop in a background goroutine.
func (p *PostPublisher) Start(ctx context.Context) {
	if p == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go p.run(ctx)
	log.Infof("post publisher started (interval=%s)", p.interval)
}

func (p *PostPublisher) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.publishDueOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (p *PostPublisher) publishDueOnce(ctx context.Context) {
	var posts []models.Post
	errFind := p.db.WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", models.PostStatusScheduled, time.Now().UTC()).
		Order("scheduled_time ASC").
		Limit(maxPostsPerRun).
		Find(&posts).Error
	if errFind != nil {
		log.WithError(errFind).Warn("post publisher: scan failed")
		return
	}

	for i := range posts {
		if ctx.Err() != nil {
			return
		}
		p.publishPost(ctx, &posts[i])
	}
}

// PublishPost publishes a single post to its flagged platforms and updates
// its status. Shared with the manual publish endpoint.
func (p *PostPublisher) PublishPost(ctx context.Context, post *models.Post) []social.PlatformResult {
	return p.publishPost(ctx, post)
}

func (p *PostPublisher) publishPost(ctx context.Context, post *models.Post) []social.PlatformResult {
	var accounts []models.SocialAccount
	errFind := p.db.WithContext(ctx).
		Where("user_id = ?", post.OwnerID).
		Find(&accounts).Error
	if errFind != nil {
		log.WithError(errFind).WithField("post_id", post.ID).Warn("post publisher: load accounts failed")
		return nil
	}

	results := p.publisher.Publish(ctx, post, accounts)

	// A post with no platform flags yields no results and must not be
	// marked posted with nothing delivered.
	allFailed := true
	for _, res := range results {
		status := "success"
		if res.Err != nil {
			status = "error"
		} else {
			allFailed = false
		}
		metrics.PostsPublishedTotal.WithLabelValues(res.Platform, status).Inc()

		switch res.Platform {
		case models.PlatformFacebook:
			post.FacebookPostID = res.PostID
		case models.PlatformInstagram:
			post.InstagramPostID = res.PostID
		case models.PlatformTikTok:
			post.TikTokPostID = res.PostID
		}
	}

	now := time.Now().UTC()
	if allFailed {
		post.Status = models.PostStatusFailed
	} else {
		post.Status = models.PostStatusPosted
		post.PostedAt = &now
	}

	errSave := p.db.WithContext(ctx).Model(post).Updates(map[string]interface{}{
		"status":            post.Status,
		"posted_at":         post.PostedAt,
		"facebook_post_id":  post.FacebookPostID,
		"instagram_post_id": post.InstagramPostID,
		"tiktok_post_id":    post.TikTokPostID,
	}).Error
	if errSave != nil {
		log.WithError(errSave).WithField("post_id", post.ID).Warn("post publisher: update post failed")
	}
	return results
}
