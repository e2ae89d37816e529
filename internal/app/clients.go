package app

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/asset-gallery-backend/internal/clients/redis"
	"github.com/yungbote/asset-gallery-backend/internal/data/db"
	"github.com/yungbote/asset-gallery-backend/internal/platform/gcp"
	"github.com/yungbote/asset-gallery-backend/internal/platform/httpx"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type Clients struct {
	Bucket     gcp.BucketService
	DB         *db.Service
	CatalogBus redis.CatalogBus
	HTTP       *retryablehttp.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Object storage
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	// Upload journal
	database, err := db.NewService(log, db.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		LogLevel: cfg.DBLogLevel,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(database.DB()); err != nil {
		_ = database.Close()
		return Clients{}, fmt.Errorf("database automigrate: %w", err)
	}

	// Redis
	var bus redis.CatalogBus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := redis.NewCatalogBus(log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			_ = database.Close()
			return Clients{}, fmt.Errorf("init redis catalog bus: %w", err)
		}
		bus = b
	}

	retry := httpx.DefaultRetryConfig()
	retry.RetryMax = cfg.HTTPRetryMax
	if cfg.HTTPTimeout > 0 {
		retry.Timeout = cfg.HTTPTimeout
	}

	return Clients{
		Bucket:     bucket,
		DB:         database,
		CatalogBus: bus,
		HTTP:       httpx.NewRetryClient(log, retry),
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.CatalogBus != nil {
		_ = c.CatalogBus.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

func redisOptions(cfg Config) *goredis.Options {
	return &goredis.Options{
		Addr:     strings.TrimSpace(cfg.RedisAddr),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
