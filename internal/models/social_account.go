package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Supported social platforms.
const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// SocialAccount stores a linked platform account and its credentials.
type SocialAccount struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index"` // Owning user ID.
	User   *User     `gorm:"foreignKey:UserID"`        // Associated user record.

	Platform string `gorm:"type:text;not null;index"` // facebook, instagram, or tiktok.

	AccessToken  string     `gorm:"type:text;not null"` // Platform access token.
	RefreshToken string     `gorm:"type:text"`          // Optional refresh token.
	ExpiresAt    *time.Time // Token expiry, nil when the platform does not report one.

	AccountID   string `gorm:"type:text;not null"` // Platform-side account or page ID.
	AccountName string `gorm:"type:text"`          // Display name reported by the platform.

	Metadata datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Raw platform profile payload.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (a *SocialAccount) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
