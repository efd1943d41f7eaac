package usage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUsageDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:usage_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.User{}, &models.LLMUsage{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, quota, usageCount int64, superuser bool) uuid.UUID {
	t.Helper()
	user := models.User{
		Email:          fmt.Sprintf("user_%s@example.com", uuid.NewString()[:8]),
		HashedPassword: "x",
		IsActive:       true,
		IsSuperuser:    superuser,
		Quota:          quota,
		UsageCount:     usageCount,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user.ID
}

func userByID(t *testing.T, conn *gorm.DB, id uuid.UUID) models.User {
	t.Helper()
	var user models.User
	if errFind := conn.First(&user, "id = ?", id).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	return user
}

func countRecords(t *testing.T, conn *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if errCount := conn.Model(&models.LLMUsage{}).Where("user_id = ?", userID).Count(&count).Error; errCount != nil {
		t.Fatalf("count records: %v", errCount)
	}
	return count
}

func TestHasQuota(t *testing.T) {
	conn := setupUsageDB(t)
	tracker := NewTracker(conn, pricing.Default(), true)
	ctx := context.Background()

	withRoom := seedUser(t, conn, 10, 3, false)
	exhausted := seedUser(t, conn, 5, 5, false)
	superuser := seedUser(t, conn, 0, 100, true)

	if !tracker.HasQuota(ctx, withRoom) {
		t.Fatal("user under quota should pass")
	}
	if tracker.HasQuota(ctx, exhausted) {
		t.Fatal("exhausted user should be denied")
	}
	if !tracker.HasQuota(ctx, superuser) {
		t.Fatal("superuser should always pass")
	}
	if tracker.HasQuota(ctx, uuid.New()) {
		t.Fatal("unknown user should fail closed")
	}
}

func TestTrackQuotaScenario(t *testing.T) {
	conn := setupUsageDB(t)
	tracker := NewTracker(conn, pricing.Default(), true)
	ctx := context.Background()

	userID := seedUser(t, conn, 2, 0, false)

	params := TrackParams{
		UserID:           userID,
		Provider:         "openai",
		Model:            "gpt-4",
		RequestType:      "content_generation",
		PromptTokens:     100,
		CompletionTokens: 50,
		Success:          true,
	}

	// First two calls pass and raise usage_count to 1 then 2.
	for i := int64(1); i <= 2; i++ {
		if errTrack := tracker.Track(ctx, params); errTrack != nil {
			t.Fatalf("track call %d: %v", i, errTrack)
		}
		if got := userByID(t, conn, userID).UsageCount; got != i {
			t.Fatalf("usage_count after call %d: got %d, want %d", i, got, i)
		}
	}

	// Third call is denied and writes nothing.
	if errTrack := tracker.Track(ctx, params); !errors.Is(errTrack, ErrQuotaExceeded) {
		t.Fatalf("call 3: got %v, want ErrQuotaExceeded", errTrack)
	}
	if got := countRecords(t, conn, userID); got != 2 {
		t.Fatalf("record count: got %d, want 2", got)
	}
	if got := userByID(t, conn, userID).UsageCount; got != 2 {
		t.Fatalf("usage_count after denial: got %d, want 2", got)
	}

	// Each successful call was priced from the static table.
	var rows []models.LLMUsage
	if errFind := conn.Where("user_id = ?", userID).Find(&rows).Error; errFind != nil {
		t.Fatalf("load records: %v", errFind)
	}
	for _, row := range rows {
		if math.Abs(row.CostUSD-0.006) > 1e-9 {
			t.Fatalf("cost_usd: got %v, want 0.006", row.CostUSD)
		}
		if row.TotalTokens != 150 {
			t.Fatalf("total_tokens: got %d, want 150", row.TotalTokens)
		}
	}
}

func TestTrackFailedCall(t *testing.T) {
	conn := setupUsageDB(t)
	tracker := NewTracker(conn, pricing.Default(), true)
	ctx := context.Background()

	userID := seedUser(t, conn, 10, 4, false)

	errTrack := tracker.Track(ctx, TrackParams{
		UserID:       userID,
		Provider:     "openai",
		Model:        "gpt-4",
		RequestType:  "content_generation",
		Success:      false,
		ErrorMessage: "timeout",
	})
	if errTrack != nil {
		t.Fatalf("failed call should still pass the gate: %v", errTrack)
	}

	var row models.LLMUsage
	if errFind := conn.Where("user_id = ?", userID).First(&row).Error; errFind != nil {
		t.Fatalf("load record: %v", errFind)
	}
	if row.Success {
		t.Fatal("record should be marked failed")
	}
	if row.ErrorMessage != "timeout" {
		t.Fatalf("error_message: got %q", row.ErrorMessage)
	}
	if row.PromptTokens != 0 || row.CompletionTokens != 0 || row.CostUSD != 0 {
		t.Fatalf("failed call should carry zero tokens and cost, got %d/%d/%v",
			row.PromptTokens, row.CompletionTokens, row.CostUSD)
	}

	// A failed attempt is recorded but does not consume quota.
	if got := userByID(t, conn, userID).UsageCount; got != 4 {
		t.Fatalf("usage_count: got %d, want 4", got)
	}
}

func TestTrackUnknownUserFailsClosed(t *testing.T) {
	conn := setupUsageDB(t)
	tracker := NewTracker(conn, pricing.Default(), true)

	errTrack := tracker.Track(context.Background(), TrackParams{
		UserID:      uuid.New(),
		Provider:    "openai",
		Model:       "gpt-4",
		RequestType: "content_generation",
		Success:     true,
	})
	if !errors.Is(errTrack, ErrQuotaExceeded) {
		t.Fatalf("unknown user: got %v, want ErrQuotaExceeded", errTrack)
	}
}

func TestTrackSuperuserRecordedNotCounted(t *testing.T) {
	conn := setupUsageDB(t)
	tracker := NewTracker(conn, pricing.Default(), true)
	ctx := context.Background()

	superID := seedUser(t, conn, 1, 1, true)

	errTrack := tracker.Track(ctx, TrackParams{
		UserID:           superID,
		Provider:         "anthropic",
		Model:            "claude-3-sonnet",
		RequestType:      "hashtag_generation",
		PromptTokens:     200,
		CompletionTokens: 100,
		Success:          true,
	})
	if errTrack != nil {
		t.Fatalf("superuser should always pass: %v", errTrack)
	}
	if got := countRecords(t, conn, superID); got != 1 {
		t.Fatalf("record count: got %d, want 1", got)
	}
	if got := userByID(t, conn, superID).UsageCount; got != 1 {
		t.Fatalf("superuser usage_count must not change, got %d", got)
	}
}

func TestTrackSuperuserRecordingDisabled(t *testing.T) {
	conn := setupUsageDB(t)
	tracker := NewTracker(conn, pricing.Default(), false)
	ctx := context.Background()

	superID := seedUser(t, conn, 1, 0, true)

	errTrack := tracker.Track(ctx, TrackParams{
		UserID:      superID,
		Provider:    "openai",
		Model:       "gpt-4",
		RequestType: "content_generation",
		Success:     true,
	})
	if errTrack != nil {
		t.Fatalf("superuser should pass: %v", errTrack)
	}
	if got := countRecords(t, conn, superID); got != 0 {
		t.Fatalf("record count with recording disabled: got %d, want 0", got)
	}
}

func TestTrackNeverExceedsQuotaSequential(t *testing.T) {
	conn := setupUsageDB(t)
	tracker := NewTracker(conn, pricing.Default(), true)
	ctx := context.Background()

	userID := seedUser(t, conn, 3, 0, false)

	for i := 0; i < 10; i++ {
		errTrack := tracker.Track(ctx, TrackParams{
			UserID:           userID,
			Provider:         "openai",
			Model:            "gpt-3.5-turbo",
			RequestType:      "content_generation",
			PromptTokens:     10,
			CompletionTokens: 10,
			Success:          true,
		})
		if errTrack != nil && !errors.Is(errTrack, ErrQuotaExceeded) {
			t.Fatalf("track %d: %v", i, errTrack)
		}
	}

	user := userByID(t, conn, userID)
	if user.UsageCount > user.Quota {
		t.Fatalf("usage_count %d exceeds quota %d", user.UsageCount, user.Quota)
	}
	if user.UsageCount != 3 {
		t.Fatalf("usage_count: got %d, want 3", user.UsageCount)
	}
	if got := countRecords(t, conn, userID); got != 3 {
		t.Fatalf("record count: got %d, want 3", got)
	}
}
