package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/asset-gallery-backend/internal/catalog"
	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/http"
	"github.com/yungbote/asset-gallery-backend/internal/observability"
	"github.com/yungbote/asset-gallery-backend/internal/platform/envutil"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Server   *http.Server
	Cfg      Config
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	metrics := observability.Init(log, cfg.metricsConfig())
	otelShutdown := observability.InitOTel(context.Background(), log, cfg.otelConfig())

	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(clientset.DB.DB(), log)
	serviceset := wireServices(log, cfg, clientset, reposet, metrics)
	handlerset := wireHandlers(log, cfg, clientset, serviceset, reposet)
	router := wireRouter(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           clientset.DB.DB(),
		Router:       router,
		Server:       &http.Server{Engine: router},
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clientset,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

// Start loads the catalog and starts background collectors and the bus
// forwarder. It is a no-op after the first call.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	store := a.Services.Catalog
	store.LoadStatic(ctx)
	if a.Cfg.WarmCatalog {
		store.Warm(ctx)
	}
	for _, c := range assets.Categories {
		a.Metrics.SetCatalogRecords(string(c), store.Len(c))
	}

	if a.Clients.CatalogBus != nil {
		err := a.Clients.CatalogBus.StartForwarder(ctx, func(ev catalog.Event) {
			if err := store.Apply(ev); err != nil {
				a.Log.Warn("catalog event rejected", "origin", ev.Origin, "error", err)
			}
		})
		if err != nil {
			a.Log.Error("catalog bus forwarder failed to start", "error", err)
		}
	}

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.Cfg.RedisAddr != "" {
		a.Metrics.StartRedisCollector(ctx, a.Log, redisOptions(a.Cfg))
	}
	if slo := a.Cfg.sloConfig(); slo.Enabled {
		a.Metrics.StartSLOEvaluator(ctx, a.Log, slo, a.Clients.HTTP)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	if addr == "" {
		addr = a.Cfg.Addr
	}
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown drains in-flight requests, then releases everything Close does.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	err := a.Server.Shutdown(ctx)
	a.Close()
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Scene != nil {
		a.Services.Scene.Close()
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
