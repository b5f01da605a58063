// Package store selects and opens the EntryStore backend.
package store

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/daylog/internal/config"
	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/redis"
	"github.com/MrSnakeDoc/daylog/internal/store/disk"
	"github.com/MrSnakeDoc/daylog/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/daylog/internal/store/redis"
	"github.com/MrSnakeDoc/daylog/internal/store/sqlite"
)

// Backend persists one text blob per owner and date.
// Get returns nil, nil when no entry exists yet.
type Backend interface {
	Get(ctx context.Context, owner domain.Owner, date domain.DateKey) (*domain.DiaryEntry, error)
	Put(ctx context.Context, owner domain.Owner, date domain.DateKey, content string) error
	Dates(ctx context.Context, owner domain.Owner) ([]domain.DateKey, error)
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*redisstore.Store)(nil)
	_ Backend = (*disk.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
	_ Backend = (*memory.Store)(nil)
)

// Open builds the backend named by cfg.Store
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Backend, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client, err := redis.Dial(ctx, redis.DialOptions{
			Addr:           cfg.RedisAddr,
			Username:       cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return redisstore.NewStore(client), nil

	case config.StoreDisk:
		log.Info("opening disk store", logger.String("path", cfg.DiskPath))
		return disk.NewStore(disk.Options{BasePath: cfg.DiskPath, CacheSizeMax: cfg.DiskCacheBytes})

	case config.StoreSQLite:
		log.Info("opening sqlite store", logger.String("path", cfg.SQLitePath))
		return sqlite.Open(ctx, cfg.SQLitePath)

	case config.StoreMemory:
		log.Warn("memory store selected, entries are lost on exit")
		return memory.NewStore(), nil
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, cfg.Store)
}
