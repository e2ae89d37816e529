package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yungbote/asset-gallery-backend/internal/observability"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type Config struct {
	Addr        string        `env:"ADDR" envDefault:":8080"`
	Environment string        `env:"APP_ENV" envDefault:"development"`
	Version     string        `env:"APP_VERSION" envDefault:"dev"`
	CORSOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTTL time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Catalog
	StaticCatalogPath string `env:"STATIC_CATALOG_PATH"`
	StaticCatalogURL  string `env:"STATIC_CATALOG_URL"`
	WarmCatalog       bool   `env:"CATALOG_WARM" envDefault:"true"`

	// Object storage
	ObjectStorageMode         string `env:"OBJECT_STORAGE_MODE" envDefault:"gcs"`
	StorageEmulatorHost       string `env:"STORAGE_EMULATOR_HOST"`
	StorageModeCompatFallback bool   `env:"OBJECT_STORAGE_COMPAT_FALLBACK"`
	AssetBucketName           string `env:"ASSET_BUCKET_NAME"`
	AssetCDNDomain            string `env:"ASSET_CDN_DOMAIN"`

	// Uploads
	UploadMaxBytes  int64         `env:"UPLOAD_MAX_BYTES" envDefault:"268435456"`
	UploadOpTimeout time.Duration `env:"UPLOAD_OP_TIMEOUT" envDefault:"2m"`

	// Scene
	SceneMaxPayloadBytes int64 `env:"SCENE_MAX_PAYLOAD_BYTES" envDefault:"536870912"`

	// Outbound HTTP
	HTTPRetryMax int           `env:"HTTP_RETRY_MAX" envDefault:"3"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`

	// Database journal
	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN      string `env:"DB_DSN" envDefault:"asset_gallery.db"`
	DBLogLevel string `env:"DB_LOG_LEVEL" envDefault:"warn"`

	// Redis catalog bus
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"REDIS_CATALOG_CHANNEL" envDefault:"asset-gallery:catalog"`

	// Observability
	MetricsEnabled          bool          `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsLatencyThreshold time.Duration `env:"METRICS_LATENCY_THRESHOLD" envDefault:"500ms"`
	MetricsScrapeInterval   time.Duration `env:"METRICS_SCRAPE_INTERVAL" envDefault:"10s"`

	SLOEnabled         bool   `env:"SLO_ENABLED"`
	SLOAlertWebhookURL string `env:"SLO_ALERT_WEBHOOK_URL"`
	SLOAlertOwner      string `env:"SLO_ALERT_OWNER"`
	SLOAlertRunbookURL string `env:"SLO_ALERT_RUNBOOK_URL"`

	OtelEnabled     bool    `env:"OTEL_ENABLED"`
	OtelServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"asset-gallery"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"0.1"`
}

// LoadConfig reads ENV_FILE_PATH (or ./.env when present) into the process
// environment, then parses Config from it. Variables already set win over
// the file.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := loadDotenv(log); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ObjectStorageMode = strings.ToLower(strings.TrimSpace(cfg.ObjectStorageMode))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return cfg, nil
}

func loadDotenv(log *logger.Logger) error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE_PATH"))
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %q: %w", path, err)
		}
		log.Info("Loaded env file", "path", path)
		return nil
	}
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	log.Info("Loaded env file", "path", ".env")
	return nil
}

func (c Config) metricsConfig() observability.MetricsConfig {
	return observability.MetricsConfig{
		Enabled:          c.MetricsEnabled,
		LatencyThreshold: c.MetricsLatencyThreshold,
		ScrapeInterval:   c.MetricsScrapeInterval,
	}
}

func (c Config) sloConfig() observability.SLOConfig {
	slo := observability.DefaultSLOConfig()
	slo.Enabled = c.SLOEnabled
	slo.AlertWebhookURL = c.SLOAlertWebhookURL
	slo.AlertOwner = c.SLOAlertOwner
	slo.AlertRunbookURL = c.SLOAlertRunbookURL
	return slo
}

func (c Config) otelConfig() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.OtelEnabled,
		ServiceName: c.OtelServiceName,
		Environment: c.Environment,
		Version:     c.Version,
		Endpoint:    c.OtelEndpoint,
		Headers:     c.OtelHeaders,
		Insecure:    c.OtelInsecure,
		SampleRatio: c.OtelSampleRatio,
	}
}
