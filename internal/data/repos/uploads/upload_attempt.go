package uploads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/dbctx"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type UploadAttemptRepo interface {
	// Save inserts or replaces the attempt row. It is the upload journal
	// write path.
	Save(ctx context.Context, row *assets.UploadAttempt) error

	Upsert(dbc dbctx.Context, row *assets.UploadAttempt) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*assets.UploadAttempt, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*assets.UploadAttempt, error)
	ListByStatus(dbc dbctx.Context, statuses []assets.UploadStatus, limit int) ([]*assets.UploadAttempt, error)
	CountByStatus(dbc dbctx.Context) (map[assets.UploadStatus]int64, error)
	DeleteOlderThan(dbc dbctx.Context, cutoff time.Time, statuses []assets.UploadStatus) (int64, error)
}

type uploadAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadAttemptRepo(db *gorm.DB, baseLog *logger.Logger) UploadAttemptRepo {
	return &uploadAttemptRepo{db: db, log: baseLog.With("repo", "UploadAttemptRepo")}
}

const defaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func (r *uploadAttemptRepo) Save(ctx context.Context, row *assets.UploadAttempt) error {
	return r.Upsert(dbctx.Context{Ctx: ctx}, row)
}

func (r *uploadAttemptRepo) Upsert(dbc dbctx.Context, row *assets.UploadAttempt) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	return dbc.DB(r.db).WithContext(dbc.Ctx).Save(row).Error
}

func (r *uploadAttemptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*assets.UploadAttempt, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*assets.UploadAttempt
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *uploadAttemptRepo) ListRecent(dbc dbctx.Context, limit int) ([]*assets.UploadAttempt, error) {
	var out []*assets.UploadAttempt
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *uploadAttemptRepo) ListByStatus(dbc dbctx.Context, statuses []assets.UploadStatus, limit int) ([]*assets.UploadAttempt, error) {
	var out []*assets.UploadAttempt
	if len(statuses) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *uploadAttemptRepo) CountByStatus(dbc dbctx.Context) (map[assets.UploadStatus]int64, error) {
	var rows []struct {
		Status assets.UploadStatus
		N      int64
	}
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&assets.UploadAttempt{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[assets.UploadStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// DeleteOlderThan prunes finished rows. Orphaned rows are kept unless
// named in statuses explicitly.
func (r *uploadAttemptRepo) DeleteOlderThan(dbc dbctx.Context, cutoff time.Time, statuses []assets.UploadStatus) (int64, error) {
	if len(statuses) == 0 {
		statuses = []assets.UploadStatus{assets.UploadStatusPublished, assets.UploadStatusFailed}
	}
	res := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("updated_at < ? AND status IN ?", cutoff, statuses).
		Delete(&assets.UploadAttempt{})
	return res.RowsAffected, res.Error
}
