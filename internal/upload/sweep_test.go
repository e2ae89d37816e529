package upload

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/dbctx"
	"github.com/yungbote/asset-gallery-backend/internal/platform/gcp"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type orphanJournal struct {
	rows  []*assets.UploadAttempt
	saved []assets.UploadAttempt
}

func (j *orphanJournal) Save(ctx context.Context, row *assets.UploadAttempt) error {
	j.saved = append(j.saved, *row)
	return nil
}

func (j *orphanJournal) ListByStatus(dbc dbctx.Context, statuses []assets.UploadStatus, limit int) ([]*assets.UploadAttempt, error) {
	var out []*assets.UploadAttempt
	for _, r := range j.rows {
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func TestSweepOrphans(t *testing.T) {
	ctx := context.Background()
	bucket := gcp.NewMemoryBucket("")
	for _, key := range []string{"3D Models/A-1700000000000-a.fbx", "3D Models/B-1700000000000-b.fbx"} {
		if err := bucket.UploadFile(ctx, key, strings.NewReader("x")); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	bucket.FailDelete = func(key string) error {
		if strings.Contains(key, "/B-") {
			return errors.New("permission denied")
		}
		return nil
	}

	swept := &assets.UploadAttempt{ID: uuid.New(), Status: assets.UploadStatusOrphaned, PrimaryKey: "3D Models/A-1700000000000-a.fbx", ThumbnailKey: "3D Models/display-images/A-1700000000000-a.png", Error: "publish failed"}
	stuck := &assets.UploadAttempt{ID: uuid.New(), Status: assets.UploadStatusOrphaned, PrimaryKey: "3D Models/B-1700000000000-b.fbx"}
	published := &assets.UploadAttempt{ID: uuid.New(), Status: assets.UploadStatusPublished}
	j := &orphanJournal{rows: []*assets.UploadAttempt{swept, stuck, published}}

	res, err := SweepOrphans(ctx, logger.NewNop(), bucket, j, 0, false)
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if res.Scanned != 2 || res.Swept != 1 || res.Failed != 1 {
		t.Fatalf("result: got=%+v", res)
	}
	if len(j.saved) != 1 || j.saved[0].ID != swept.ID {
		t.Fatalf("saved: got=%+v", j.saved)
	}
	if j.saved[0].Status != assets.UploadStatusFailed || j.saved[0].Error != "publish failed; orphaned objects swept" {
		t.Fatalf("swept row: status=%q error=%q", j.saved[0].Status, j.saved[0].Error)
	}
	if keys := bucket.Keys(); len(keys) != 1 || keys[0] != "3D Models/B-1700000000000-b.fbx" {
		t.Fatalf("bucket: got=%v", keys)
	}
}

func TestSweepOrphansDryRun(t *testing.T) {
	bucket := gcp.NewMemoryBucket("")
	j := &orphanJournal{rows: []*assets.UploadAttempt{{ID: uuid.New(), Status: assets.UploadStatusOrphaned, PrimaryKey: "k"}}}
	res, err := SweepOrphans(context.Background(), logger.NewNop(), bucket, j, 10, true)
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if res.Scanned != 1 || res.Swept != 0 || len(j.saved) != 0 {
		t.Fatalf("dry run: got=%+v saved=%d", res, len(j.saved))
	}
}
