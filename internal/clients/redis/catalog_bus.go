package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/asset-gallery-backend/internal/catalog"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type CatalogBus interface {
	Publish(ctx context.Context, ev catalog.Event) error
	StartForwarder(ctx context.Context, onEvent func(ev catalog.Event)) error
	Close() error
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type catalogBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

func NewCatalogBus(log *logger.Logger, cfg Config) (CatalogBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewCatalogBusWithClient(log, rdb, cfg.Channel), nil
}

// NewCatalogBusWithClient wraps an existing client; the bus takes ownership
// and closes it on Close.
func NewCatalogBusWithClient(log *logger.Logger, rdb goredis.UniversalClient, channel string) CatalogBus {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "asset-catalog"
	}
	return &catalogBus{
		log:     log.With("service", "RedisCatalogBus"),
		rdb:     rdb,
		channel: channel,
	}
}

func (b *catalogBus) Publish(ctx context.Context, ev catalog.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis catalog bus not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *catalogBus) StartForwarder(ctx context.Context, onEvent func(ev catalog.Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis catalog bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// wait for the subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev catalog.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad catalog bus payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (b *catalogBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
