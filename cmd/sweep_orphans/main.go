package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/asset-gallery-backend/internal/app"
	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/dbctx"
	"github.com/yungbote/asset-gallery-backend/internal/upload"
)

func main() {
	var (
		dryRun    bool
		limit     int
		pruneDays int
	)
	flag.BoolVar(&dryRun, "dry-run", false, "print orphaned attempts without deleting anything")
	flag.IntVar(&limit, "limit", 100, "max orphaned attempts processed")
	flag.IntVar(&pruneDays, "prune-days", 0, "also delete published/failed journal rows older than this many days (0 disables)")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	res, err := upload.SweepOrphans(ctx, application.Log, application.Clients.Bucket, application.Repos.UploadAttempt, limit, dryRun)
	if err != nil {
		fmt.Printf("sweep: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("orphans scanned=%d swept=%d failed=%d\n", res.Scanned, res.Swept, res.Failed)

	if pruneDays <= 0 || dryRun {
		return
	}
	cutoff := time.Now().Add(-time.Duration(pruneDays) * 24 * time.Hour)
	n, err := application.Repos.UploadAttempt.DeleteOlderThan(dbctx.Context{Ctx: ctx}, cutoff, []assets.UploadStatus{
		assets.UploadStatusPublished,
		assets.UploadStatusFailed,
	})
	if err != nil {
		fmt.Printf("prune: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("pruned %d journal rows older than %s\n", n, cutoff.Format(time.RFC3339))
}
