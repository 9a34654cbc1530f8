package container

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-registry/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/redisstore"
	sqliteinfra "github.com/oksasatya/go-user-registry/internal/infrastructure/sqlite"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
)

// OpenStore builds the record store selected by c.StoreDriver. The postgres
// pool and redis client it creates are registered as singletons.
func OpenStore(ctx context.Context, c *config.Config) (repository.UserStore, error) {
	switch c.StoreDriver {
	case config.StoreSQLite:
		store, err := sqliteinfra.Open(c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.StorePostgres:
		if err := pginfra.RunMigrations(c.PostgresDSN(), c.MigrationsDir, GetLogger()); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, c.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:    c.DBMaxConns,
			MinConns:    c.DBMinConns,
			MaxConnLife: c.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		SetPGPool(pool)
		return pginfra.NewUserRepository(pool), nil
	case config.StoreRedis:
		rdb := GetRedis()
		if rdb == nil {
			rdb = helpers.NewRedisClient(c.RedisAddr, c.RedisPassword, c.RedisDB)
			SetRedis(rdb)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisstore.New(rdb, c.RedisUsersKey), nil
	case config.StoreMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
}
