package router

import (
	"expvar"
	"sync"

	appuser "github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/container"
	handlers "github.com/oksasatya/go-user-registry/internal/interface/http"
	"github.com/oksasatya/go-user-registry/internal/router/modules"
)

type UserModuleDeps struct {
	Service *appuser.Service
	Handler *handlers.UserHandler
}

// BuildUserDeps constructs the façade from container singletons. The gRPC
// server shares the same Service.
func BuildUserDeps() UserModuleDeps {
	service := appuser.NewService(
		container.GetRegistry(),
		container.GetHasher(),
		container.GetPublisher(),
		container.GetLogger(),
	)
	handler := handlers.NewUserHandler(service, container.GetLogger())
	return UserModuleDeps{
		Service: service,
		Handler: handler,
	}
}

var publishMetrics sync.Once

// postgresPoolStats reports pool usage, or nil when the store is not postgres.
func postgresPoolStats() any {
	pool := container.GetPGPool()
	if pool == nil {
		return nil
	}
	st := pool.Stat()
	return map[string]int64{
		"total_conns":    int64(st.TotalConns()),
		"idle_conns":     int64(st.IdleConns()),
		"acquired_conns": int64(st.AcquiredConns()),
		"max_conns":      int64(st.MaxConns()),
		"acquire_count":  st.AcquireCount(),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, deps UserModuleDeps) {
	cfg := container.GetConfig()
	r.Add(modules.NewUserModule(deps.Handler, container.GetRedis(), cfg.RateLimitPerMinute))
	if cfg.DebugMetricsEnabled {
		publishMetrics.Do(func() {
			expvar.Publish("users_registered", expvar.Func(func() any {
				if reg := container.GetRegistry(); reg != nil {
					return reg.Len()
				}
				return 0
			}))
			expvar.Publish("postgres_pool", expvar.Func(postgresPoolStats))
		})
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
}
