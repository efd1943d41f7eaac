// Package usage implements LLM usage accounting: the quota gate, the
// append-only usage ledger, and per-user summaries.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/pricing"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrQuotaExceeded reports that a non-superuser has used up their LLM request
// quota. Callers surface it as a client rejection, distinct from upstream
// provider failures.
var ErrQuotaExceeded = errors.New("llm request quota exceeded")

// Tracker coordinates quota checks, cost calculation, ledger writes, and
// usage-counter increments for every LLM call attempt.
type Tracker struct {
	db              *gorm.DB
	prices          *pricing.Table
	recordSuperuser bool
}

// NewTracker constructs a Tracker. recordSuperuser controls whether calls by
// quota-exempt superusers still append ledger rows for reporting.
func NewTracker(db *gorm.DB, prices *pricing.Table, recordSuperuser bool) *Tracker {
	return &Tracker{db: db, prices: prices, recordSuperuser: recordSuperuser}
}

// Prices exposes the tracker's price table.
func (t *Tracker) Prices() *pricing.Table { return t.prices }

// HasQuota reports whether the user may issue another LLM request.
// Superusers always pass; unknown users fail closed.
func (t *Tracker) HasQuota(ctx context.Context, userID uuid.UUID) bool {
	var user models.User
	if errFind := t.db.WithContext(ctx).
		Select("id", "is_superuser", "quota", "usage_count").
		First(&user, "id = ?", userID).Error; errFind != nil {
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			log.WithError(errFind).Warn("usage: quota lookup failed")
		}
		return false
	}
	return user.HasQuota()
}

// TrackParams carries the inputs for one accounting operation.
type TrackParams struct {
	UserID           uuid.UUID
	Provider         string
	Model            string
	RequestType      string
	PromptTokens     int64
	CompletionTokens int64
	Success          bool
	ErrorMessage     string // Set iff Success is false.
}

// Track records one LLM call attempt.
//
// Steps, in order: quota gate, cost calculation, ledger append, and — for
// successful calls by non-superusers — a single conditional increment of the
// user's usage counter. A gate denial returns ErrQuotaExceeded with nothing
// written; unknown users fail closed the same way. The ledger append and the
// counter increment are independently durable: a failure in the second step
// does not roll back the first.
func (t *Tracker) Track(ctx context.Context, p TrackParams) error {
	var user models.User
	if errFind := t.db.WithContext(ctx).
		Select("id", "is_superuser", "quota", "usage_count").
		First(&user, "id = ?", p.UserID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrQuotaExceeded
		}
		return fmt.Errorf("usage: load user: %w", errFind)
	}
	if !user.HasQuota() {
		return ErrQuotaExceeded
	}

	if user.IsSuperuser && !t.recordSuperuser {
		return nil
	}

	cost := t.prices.Cost(p.Provider, p.Model, p.PromptTokens, p.CompletionTokens)

	row := models.LLMUsage{
		UserID:           p.UserID,
		Provider:         p.Provider,
		Model:            p.Model,
		PromptTokens:     p.PromptTokens,
		CompletionTokens: p.CompletionTokens,
		TotalTokens:      p.PromptTokens + p.CompletionTokens,
		CostUSD:          cost,
		RequestType:      p.RequestType,
		Success:          p.Success,
		ErrorMessage:     p.ErrorMessage,
		CreatedAt:        time.Now().UTC(),
	}
	if errCreate := t.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return fmt.Errorf("usage: append ledger row: %w", errCreate)
	}

	if p.Success && !user.IsSuperuser {
		// Conditional increment keeps usage_count <= quota even when two
		// requests pass the gate concurrently.
		res := t.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND usage_count < quota", p.UserID).
			Update("usage_count", gorm.Expr("usage_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("usage: increment usage count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			log.WithField("user_id", p.UserID).Warn("usage: counter increment lost to concurrent request")
		}
	}

	return nil
}
