package app

import (
	"context"

	httpH "github.com/yungbote/asset-gallery-backend/internal/http/handlers"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	Catalog       *httpH.CatalogHandler
	Upload        *httpH.UploadHandler
	Viewport      *httpH.ViewportHandler
	UploadJournal *httpH.UploadJournalHandler
}

func wireHandlers(log *logger.Logger, cfg Config, clients Clients, services Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{}
	if clients.DB != nil {
		checks["db"] = func(ctx context.Context) error {
			sqlDB, err := clients.DB.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	return Handlers{
		Health:        httpH.NewHealthHandler(checks),
		Catalog:       httpH.NewCatalogHandler(log, services.Catalog, clients.Bucket),
		Upload:        httpH.NewUploadHandler(log, services.Uploads, cfg.UploadMaxBytes),
		Viewport:      httpH.NewViewportHandler(log, services.Scene, services.Catalog, clients.Bucket),
		UploadJournal: httpH.NewUploadJournalHandler(log, reposet.UploadAttempt),
	}
}
