package app

import (
	"github.com/yungbote/asset-gallery-backend/internal/catalog"
	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/observability"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
	"github.com/yungbote/asset-gallery-backend/internal/scene"
	"github.com/yungbote/asset-gallery-backend/internal/upload"
)

type Services struct {
	Catalog *catalog.Store
	Uploads *upload.Orchestrator
	Scene   *scene.Manager
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	catalogOpts := catalog.Options{
		Static: catalog.StaticSource{
			Path: cfg.StaticCatalogPath,
			URL:  cfg.StaticCatalogURL,
			HTTP: clients.HTTP,
		},
		Remote: clients.Bucket,
	}
	if clients.CatalogBus != nil {
		catalogOpts.Bus = clients.CatalogBus
	}
	var store *catalog.Store
	if metrics != nil {
		catalogOpts.Observer = catalogFetchObserver(metrics, func(c assets.Category) int { return store.Len(c) })
	}
	store = catalog.NewStore(log, catalogOpts)

	uploadOpts := upload.Options{
		Store:     clients.Bucket,
		Catalog:   store,
		Journal:   reposet.UploadAttempt,
		OpTimeout: cfg.UploadOpTimeout,
	}
	if metrics != nil {
		uploadOpts.Observer = metrics.ObserveUpload
	}
	orch := upload.NewOrchestrator(log, uploadOpts)

	sceneOpts := scene.Options{
		Loader: &scene.FetchLoader{
			HTTP:     clients.HTTP,
			Store:    clients.Bucket,
			MaxBytes: cfg.SceneMaxPayloadBytes,
		},
	}
	if metrics != nil {
		sceneOpts.Observer = func(ev scene.Event) {
			metrics.ObserveScene(string(ev.Kind), string(ev.Type))
		}
	}
	mgr := scene.NewManager(log, sceneOpts)

	return Services{
		Catalog: store,
		Uploads: orch,
		Scene:   mgr,
	}
}

// catalogFetchObserver counts remote listings. The records gauge is set
// from size once the observer returns, so it reports the merged total.
func catalogFetchObserver(m *observability.Metrics, size func(assets.Category) int) catalog.FetchObserver {
	return func(category assets.Category, err error, records int) {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		m.ObserveCatalogFetch(string(category), status)
		if err == nil {
			m.SetCatalogRecords(string(category), size(category)+records)
		}
	}
}
