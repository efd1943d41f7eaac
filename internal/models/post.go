package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post publication statuses.
const (
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
)

// Post represents a scheduled or published social-media post.
type Post struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"` // Owning user ID.
	Owner   *User     `gorm:"foreignKey:OwnerID"`       // Associated user record.

	MediaURL string `gorm:"type:text;not null"` // Image or video URL attached to the post.
	Text     string `gorm:"type:text;not null"` // Post body.
	Hashtags string `gorm:"type:text"`          // Comma-separated hashtags.

	ScheduledTime time.Time `gorm:"not null;index"` // When the post should go out.

	// No column defaults here: gorm skips zero-valued fields that carry a
	// default tag, which would silently turn an explicit false into true.
	ToFacebook  bool `gorm:"not null"` // Publish to Facebook.
	ToInstagram bool `gorm:"not null"` // Publish to Instagram.
	ToTikTok    bool `gorm:"column:to_tiktok;not null"` // Publish to TikTok.

	Status string `gorm:"type:text;not null;default:scheduled;index"` // scheduled, posted, or failed.

	FacebookPostID  string `gorm:"type:text"` // Platform post ID once published.
	InstagramPostID string `gorm:"type:text"` // Platform post ID once published.
	TikTokPostID    string `gorm:"column:tiktok_post_id;type:text"` // Platform post ID once published.

	Likes          int64   `gorm:"not null;default:0"` // Aggregated like count.
	Comments       int64   `gorm:"not null;default:0"` // Aggregated comment count.
	Shares         int64   `gorm:"not null;default:0"` // Aggregated share count.
	Views          int64   `gorm:"not null;default:0"` // Aggregated view count.
	EngagementRate float64 `gorm:"not null;default:0"` // Engagement per view, percentage.

	PostedAt *time.Time // Publication timestamp, nil until posted.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Engagement returns the combined interaction count for the post.
func (p *Post) Engagement() int64 {
	return p.Likes + p.Comments + p.Shares
}
