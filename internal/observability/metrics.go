package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled          bool
	LatencyThreshold time.Duration
	ScrapeInterval   time.Duration
}

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter
	apiReqGood  *Counter

	uploads        *CounterVec
	uploadLatency  *HistogramVec
	uploadTotal    *Counter
	uploadFailed   *Counter
	uploadOrphaned *Counter

	sceneEvents     *CounterVec
	sceneLoadTotal  *Counter
	sceneLoadFailed *Counter

	catalogFetch   *CounterVec
	catalogRecords *GaugeVec

	storageBootstrap  *CounterVec
	storageModeActive *GaugeVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	sloCompliance *GaugeVec
	sloBudget     *GaugeVec
	sloBurn       *GaugeVec

	sloLatencyThreshold float64
	scrapeInterval      time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide registry once. It returns nil when metrics
// are disabled; every method is safe on a nil *Metrics.
func Init(log *logger.Logger, cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New(cfg)
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

func New(cfg MetricsConfig) *Metrics {
	threshold := cfg.LatencyThreshold
	if threshold <= 0 {
		threshold = 500 * time.Millisecond
	}
	interval := cfg.ScrapeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("ag_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ag_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("ag_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("ag_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("ag_api_requests_error_total", "Total API requests with 5xx status."),
		apiReqGood:  NewCounter("ag_api_requests_good_latency_total", "Total API requests under SLO latency threshold."),

		uploads: NewCounterVec("ag_uploads_total", "Upload attempts by category/status.", []string{"category", "status"}),
		uploadLatency: NewHistogramVec(
			"ag_upload_duration_seconds",
			"Upload attempt duration in seconds by category/status.",
			[]string{"category", "status"},
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		),
		uploadTotal:    NewCounter("ag_uploads_total_all", "Upload attempts (all)."),
		uploadFailed:   NewCounter("ag_uploads_failed_total", "Upload attempts that did not publish."),
		uploadOrphaned: NewCounter("ag_uploads_orphaned_total", "Upload attempts that left objects behind."),

		sceneEvents:     NewCounterVec("ag_scene_events_total", "Scene manager events by kind/event.", []string{"kind", "event"}),
		sceneLoadTotal:  NewCounter("ag_scene_loads_total", "Scene loads that reached the graph or failed."),
		sceneLoadFailed: NewCounter("ag_scene_loads_failed_total", "Scene loads that failed."),

		catalogFetch:   NewCounterVec("ag_catalog_remote_fetch_total", "Remote catalog listings by category/status.", []string{"category", "status"}),
		catalogRecords: NewGaugeVec("ag_catalog_records", "Catalog records by category.", []string{"category"}),

		storageBootstrap:  NewCounterVec("ag_object_storage_bootstrap_total", "Object storage provider bootstrap by mode/status/code.", []string{"mode", "status", "code"}),
		storageModeActive: NewGaugeVec("ag_object_storage_mode_active", "Active object storage mode (1=active).", []string{"mode"}),

		dbStats:   NewGaugeVec("ag_db_stats", "Database connection stats.", []string{"metric"}),
		redisUp:   NewGauge("ag_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing: NewGauge("ag_redis_ping_seconds", "Redis ping latency in seconds."),

		sloCompliance: NewGaugeVec("ag_slo_compliance", "SLO compliance (SLI) over window.", []string{"slo", "window"}),
		sloBudget:     NewGaugeVec("ag_slo_error_budget_remaining", "Error budget remaining (0-1).", []string{"slo", "window"}),
		sloBurn:       NewGaugeVec("ag_slo_burn_rate", "Error budget burn rate.", []string{"slo", "window"}),

		sloLatencyThreshold: threshold.Seconds(),
		scrapeInterval:      interval,
	}
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError, m.apiReqGood,
		m.uploads, m.uploadLatency, m.uploadTotal, m.uploadFailed, m.uploadOrphaned,
		m.sceneEvents, m.sceneLoadTotal, m.sceneLoadFailed,
		m.catalogFetch, m.catalogRecords,
		m.storageBootstrap, m.storageModeActive,
		m.dbStats, m.redisUp, m.redisPing,
		m.sloCompliance, m.sloBudget, m.sloBurn,
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
	if m.sloLatencyThreshold > 0 && dur.Seconds() <= m.sloLatencyThreshold {
		m.apiReqGood.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveUpload matches the upload orchestrator's observer signature.
func (m *Metrics) ObserveUpload(category assets.Category, status assets.UploadStatus, dur time.Duration) {
	if m == nil {
		return
	}
	cat := string(category)
	st := string(status)
	m.uploads.Inc(cat, st)
	m.uploadLatency.Observe(dur.Seconds(), cat, st)
	m.uploadTotal.Inc()
	switch status {
	case assets.UploadStatusFailed:
		m.uploadFailed.Inc()
	case assets.UploadStatusOrphaned:
		m.uploadFailed.Inc()
		m.uploadOrphaned.Inc()
	}
}

// ObserveScene counts one scene manager event. Only installed and failed
// loads feed the load SLO; discarded loads were superseded, not broken.
func (m *Metrics) ObserveScene(kind, event string) {
	if m == nil {
		return
	}
	m.sceneEvents.Inc(kind, event)
	switch event {
	case "installed":
		m.sceneLoadTotal.Inc()
	case "failed":
		m.sceneLoadTotal.Inc()
		m.sceneLoadFailed.Inc()
	}
}

func (m *Metrics) ObserveCatalogFetch(category, status string) {
	if m == nil {
		return
	}
	m.catalogFetch.Inc(category, status)
}

func (m *Metrics) SetCatalogRecords(category string, n int) {
	if m == nil {
		return
	}
	m.catalogRecords.Set(float64(n), category)
}

func (m *Metrics) ObserveObjectStorageProviderBootstrap(mode, status, code string) {
	if m == nil {
		return
	}
	m.storageBootstrap.Inc(mode, status, code)
}

// SetObjectStorageModeActive marks mode as the only active storage mode.
func (m *Metrics) SetObjectStorageModeActive(mode string) {
	if m == nil {
		return
	}
	for _, known := range []string{"gcs", "gcs_emulator", "memory"} {
		m.storageModeActive.Set(0, known)
	}
	m.storageModeActive.Set(1, mode)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, opts *redis.Options) {
	if m == nil || opts == nil || strings.TrimSpace(opts.Addr) == "" {
		return
	}
	rdb := redis.NewClient(opts)
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func isServerErrorStatus(status string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(status))
	return err == nil && n >= 500 && n <= 599
}
