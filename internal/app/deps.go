package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/availability-scheduling/internal/availability"
	"github.com/hackgods/availability-scheduling/internal/config"
	"github.com/hackgods/availability-scheduling/internal/db"
	redisclient "github.com/hackgods/availability-scheduling/internal/redis"
)

// Deps holds the connections shared by the binaries. PgPool and Redis are
// nil when the corresponding backend is disabled.
type Deps struct {
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Service *availability.Service
}

func (d *Deps) Close(log *zap.Logger) {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}
	if d.PgPool != nil {
		d.PgPool.Close()
	}
}

// Connect opens the event store and, when enabled, the Redis cache, then
// builds the availability service on top of them.
func Connect(ctx context.Context, cfg config.Config, log *zap.Logger) (*Deps, error) {
	deps := &Deps{}

	var store availability.EventStore
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store = availability.NewMemoryStore()
		log.Warn("using in-memory event store, data is lost on exit")
	default:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("postgres connection error: %w", err)
		}
		deps.PgPool = pool
		log.Info("connected to Postgres")

		if err := db.EnsureSchema(ctx, pool); err != nil {
			deps.Close(log)
			return nil, err
		}
		store = availability.NewPgRepository(pool)
	}

	var cache availability.Cache
	var locker redisclient.Locker
	if cfg.CacheEnabled {
		rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			deps.Close(log)
			return nil, fmt.Errorf("redis connection error: %w", err)
		}
		deps.Redis = rdb
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

		cache = redisclient.NewAvailabilityCache(rdb, cfg.CacheTTL)
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	}

	deps.Service = availability.NewService(store, cache, locker, cfg.Location(), log)
	return deps, nil
}
