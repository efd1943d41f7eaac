package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LLMUsage records accounting data for a single LLM call attempt.
//
// Rows are append-only: they are created exactly once per attempted call and
// never updated or deleted. Column names and types are a durable contract
// consumed by external reporting tools.
type LLMUsage struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index"` // Owning user ID.
	User   *User     `gorm:"foreignKey:UserID"`        // Associated user record.

	Provider string `gorm:"type:text;not null;index"` // LLM vendor tag (openai, anthropic, ...).
	Model    string `gorm:"type:text;not null;index"` // Model identifier.

	PromptTokens     int64 `gorm:"not null;default:0"` // Prompt token count.
	CompletionTokens int64 `gorm:"not null;default:0"` // Completion token count.
	TotalTokens      int64 `gorm:"not null;default:0"` // Total token count.

	CostUSD float64 `gorm:"not null;default:0"` // Computed cost in USD.

	RequestType string `gorm:"type:text;not null;index"` // Classification tag (post_generation, ...).

	// No column default: gorm would skip an explicit false at insert time
	// and record a failed call as a success.
	Success      bool   `gorm:"not null"`  // Whether the call succeeded.
	ErrorMessage string `gorm:"type:text"` // Upstream error, set iff the call failed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (u *LLMUsage) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default table name.
func (LLMUsage) TableName() string {
	return "llm_usage"
}
