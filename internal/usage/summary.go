package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
)

// Summary aggregates a user's usage ledger.
type Summary struct {
	TotalRequests      int64            `json:"total_requests"`
	TotalTokens        int64            `json:"total_tokens"`
	TotalCostUSD       float64          `json:"total_cost_usd"`
	RequestsByProvider map[string]int64 `json:"requests_by_provider"`
	RequestsByType     map[string]int64 `json:"requests_by_type"`
}

// Summarize computes on-demand rollups over the user's ledger rows. A user
// with no rows yields a zero-valued summary with empty groupings, not an
// error.
func (t *Tracker) Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	summary := &Summary{
		RequestsByProvider: map[string]int64{},
		RequestsByType:     map[string]int64{},
	}

	var totals struct {
		TotalRequests int64
		TotalTokens   int64
		TotalCostUSD  float64
	}
	if errScan := t.db.WithContext(ctx).Model(&models.LLMUsage{}).
		Where("user_id = ?", userID).
		Select("COUNT(*) AS total_requests, COALESCE(SUM(total_tokens), 0) AS total_tokens, COALESCE(SUM(cost_usd), 0) AS total_cost_usd").
		Scan(&totals).Error; errScan != nil {
		return nil, fmt.Errorf("usage: summarize totals: %w", errScan)
	}
	summary.TotalRequests = totals.TotalRequests
	summary.TotalTokens = totals.TotalTokens
	summary.TotalCostUSD = totals.TotalCostUSD

	type groupCount struct {
		Tag   string
		Count int64
	}

	var byProvider []groupCount
	if errScan := t.db.WithContext(ctx).Model(&models.LLMUsage{}).
		Where("user_id = ?", userID).
		Select("provider AS tag, COUNT(*) AS count").
		Group("provider").
		Scan(&byProvider).Error; errScan != nil {
		return nil, fmt.Errorf("usage: summarize by provider: %w", errScan)
	}
	for _, row := range byProvider {
		summary.RequestsByProvider[row.Tag] = row.Count
	}

	var byType []groupCount
	if errScan := t.db.WithContext(ctx).Model(&models.LLMUsage{}).
		Where("user_id = ?", userID).
		Select("request_type AS tag, COUNT(*) AS count").
		Group("request_type").
		Scan(&byType).Error; errScan != nil {
		return nil, fmt.Errorf("usage: summarize by type: %w", errScan)
	}
	for _, row := range byType {
		summary.RequestsByType[row.Tag] = row.Count
	}

	return summary, nil
}

// RecordFilter narrows ledger listings.
type RecordFilter struct {
	Provider    string
	RequestType string
	Limit       int
	Offset      int
}

// Records lists a user's ledger rows, newest first. The ledger is
// append-only; this is the only read path besides Summarize.
func (t *Tracker) Records(ctx context.Context, userID uuid.UUID, filter RecordFilter) ([]models.LLMUsage, int64, error) {
	query := t.db.WithContext(ctx).Model(&models.LLMUsage{}).Where("user_id = ?", userID)
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.RequestType != "" {
		query = query.Where("request_type = ?", filter.RequestType)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("usage: count records: %w", errCount)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []models.LLMUsage
	if errFind := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&rows).Error; errFind != nil {
		return nil, 0, fmt.Errorf("usage: list records: %w", errFind)
	}
	return rows, total, nil
}

// QuotaInfo is the user-facing quota snapshot.
type QuotaInfo struct {
	Quota       int64 `json:"quota"`
	UsageCount  int64 `json:"usage_count"`
	Remaining   int64 `json:"remaining"`
	HasQuota    bool  `json:"has_quota"`
	IsSuperuser bool  `json:"is_superuser"`
}

// QuotaFor returns the quota snapshot for a user.
func (t *Tracker) QuotaFor(ctx context.Context, userID uuid.UUID) (*QuotaInfo, error) {
	var user models.User
	if errFind := t.db.WithContext(ctx).
		Select("id", "is_superuser", "quota", "usage_count").
		First(&user, "id = ?", userID).Error; errFind != nil {
		return nil, errFind
	}

	remaining := user.Quota - user.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaInfo{
		Quota:       user.Quota,
		UsageCount:  user.UsageCount,
		Remaining:   remaining,
		HasQuota:    user.HasQuota(),
		IsSuperuser: user.IsSuperuser,
	}, nil
}
