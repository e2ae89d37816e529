package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/asset-gallery-backend/internal/http"
	"github.com/yungbote/asset-gallery-backend/internal/observability"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	rc := http.RouterConfig{
		Log:                  log,
		Metrics:              metrics,
		CORSOrigins:          cfg.CORSOrigins,
		CatalogHandler:       handlers.Catalog,
		UploadHandler:        handlers.Upload,
		ViewportHandler:      handlers.Viewport,
		UploadJournalHandler: handlers.UploadJournal,
		HealthHandler:        handlers.Health,
	}
	if cfg.OtelEnabled {
		rc.TracingService = cfg.OtelServiceName
	}
	return http.NewRouter(rc)
}
