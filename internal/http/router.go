package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/asset-gallery-backend/internal/http/handlers"
	httpMW "github.com/yungbote/asset-gallery-backend/internal/http/middleware"
	"github.com/yungbote/asset-gallery-backend/internal/observability"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// TracingService enables otelgin spans under this service name.
	TracingService string
	CORSOrigins    []string

	CatalogHandler       *httpH.CatalogHandler
	UploadHandler        *httpH.UploadHandler
	ViewportHandler      *httpH.ViewportHandler
	UploadJournalHandler *httpH.UploadJournalHandler
	HealthHandler        *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics", "/healthcheck"))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Catalog
		if cfg.CatalogHandler != nil {
			api.GET("/categories", cfg.CatalogHandler.ListCategories)
			api.GET("/catalog", cfg.CatalogHandler.Snapshot)
			api.GET("/catalog/:category", cfg.CatalogHandler.ListCategory)
			api.POST("/browse", cfg.CatalogHandler.Browse)
		}

		// Uploads
		if cfg.UploadHandler != nil {
			api.POST("/assets/:category", cfg.UploadHandler.Upload)
			api.POST("/upload", cfg.UploadHandler.LegacyUpload)
		}
		if cfg.UploadJournalHandler != nil {
			api.GET("/uploads", cfg.UploadJournalHandler.List)
			api.GET("/uploads/:id", cfg.UploadJournalHandler.Get)
		}

		// Viewport
		if cfg.ViewportHandler != nil {
			api.GET("/viewport", cfg.ViewportHandler.Get)
			api.POST("/viewport/activate", cfg.ViewportHandler.Activate)
		}
	}

	return r
}
