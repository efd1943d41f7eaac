package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account stored in the database.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	Email          string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	HashedPassword string `gorm:"type:text;not null"`             // Bcrypt password hash.
	FullName       string `gorm:"type:text"`                      // Display name.

	// No column defaults on these: gorm skips zero-valued fields that carry
	// a default tag, so an account created inactive or with quota 0 would
	// silently pick up the default instead.
	IsActive    bool `gorm:"not null"` // Whether the user can sign in.
	IsSuperuser bool `gorm:"not null"` // Grants admin access and quota exemption.

	Quota      int64 `gorm:"not null"`           // Ceiling on successful LLM requests.
	UsageCount int64 `gorm:"not null;default:0"` // Successful LLM requests consumed so far.

	BusinessDescription string `gorm:"type:text"` // Client business description for prompt context.
	ClientAvatars       string `gorm:"type:text"` // Client target-audience description.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasQuota reports whether the user may issue another LLM request.
func (u *User) HasQuota() bool {
	if u.IsSuperuser {
		return true
	}
	return u.UsageCount < u.Quota
}
