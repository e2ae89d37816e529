package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

// SeedUploadAttempt inserts a journal row for name in category with the
// given status, timestamped at.
func SeedUploadAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, category assets.Category, name string, status assets.UploadStatus, at time.Time) *assets.UploadAttempt {
	tb.Helper()
	ts := at.UnixMilli()
	a := &assets.UploadAttempt{
		ID:           uuid.New(),
		Category:     category.DisplayName(),
		Name:         name,
		Timestamp:    ts,
		PrimaryKey:   assets.ObjectKey(category, name, ts, name+".fbx"),
		ThumbnailKey: assets.DisplayImageKey(category, name, ts, name+".png"),
		Status:       status,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed upload attempt: %v", err)
	}
	return a
}
