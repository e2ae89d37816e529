package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/dbctx"
	"github.com/yungbote/asset-gallery-backend/internal/platform/gcp"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

// OrphanJournal is the part of the upload journal the sweeper needs.
type OrphanJournal interface {
	Save(ctx context.Context, row *assets.UploadAttempt) error
	ListByStatus(dbc dbctx.Context, statuses []assets.UploadStatus, limit int) ([]*assets.UploadAttempt, error)
}

type SweepResult struct {
	Scanned int
	Swept   int
	Failed  int
}

// SweepOrphans retries the compensating delete for orphaned attempts. An
// attempt whose objects are all gone (deleted now or already missing)
// becomes failed; anything else stays orphaned for the next sweep.
func SweepOrphans(ctx context.Context, log *logger.Logger, store ObjectStore, journal OrphanJournal, limit int, dryRun bool) (SweepResult, error) {
	var res SweepResult
	rows, err := journal.ListByStatus(dbctx.Context{Ctx: ctx}, []assets.UploadStatus{assets.UploadStatusOrphaned}, limit)
	if err != nil {
		return res, fmt.Errorf("list orphaned attempts: %w", err)
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		res.Scanned++
		rlog := log.With("attempt_id", row.ID.String(), "category", row.Category, "name", row.Name)
		if dryRun {
			rlog.Info("would sweep orphaned attempt", "primary_key", row.PrimaryKey, "thumbnail_key", row.ThumbnailKey)
			continue
		}

		clean := true
		for _, key := range []string{row.PrimaryKey, row.ThumbnailKey} {
			if key == "" {
				continue
			}
			if err := store.DeleteFile(ctx, key); err != nil && !errors.Is(err, gcp.ErrObjectNotFound) {
				rlog.Warn("orphan delete failed", "key", key, "error", err)
				clean = false
			}
		}
		if !clean {
			res.Failed++
			continue
		}

		row.Status = assets.UploadStatusFailed
		row.UpdatedAt = time.Now()
		if row.Error != "" {
			row.Error += "; "
		}
		row.Error += "orphaned objects swept"
		if err := journal.Save(ctx, row); err != nil {
			rlog.Warn("orphan sweep journal write failed", "error", err)
			res.Failed++
			continue
		}
		res.Swept++
	}
	return res, nil
}
