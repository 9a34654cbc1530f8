package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/container"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-registry/internal/registry"
)

func setupContainer(t *testing.T, debug bool) {
	t.Helper()
	cfg := config.Load()
	cfg.DebugMetricsEnabled = debug
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	reg, err := registry.Load(context.Background(), memory.NewStore())
	require.NoError(t, err)
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRegistry(reg)
	container.SetRedis(nil)
	container.SetPGPool(nil)
}

func TestModuleName(t *testing.T) {
	require.Equal(t, "ping", moduleName(pingModule{}))
	require.Equal(t, "unnamed", moduleName(anonModule{}))
}

type anonModule struct{}

func (anonModule) Register(*gin.RouterGroup) {}

func routesOf(e *gin.Engine) map[string]bool {
	out := make(map[string]bool)
	for _, ri := range e.Routes() {
		out[ri.Method+" "+ri.Path] = true
	}
	return out
}

func TestInitModulesRegistersUserRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupContainer(t, false)

	e := gin.New()
	reg := NewRegistry(e, nil)
	InitModules(reg, BuildUserDeps())
	reg.RegisterAll()

	routes := routesOf(e)
	for _, want := range []string{
		"POST /api/users",
		"GET /api/users",
		"GET /api/users/:id",
		"PUT /api/users/:id",
		"GET /api/users/:id/exists",
		"PUT /api/users/:id/password",
		"POST /api/users/:id/password/verify",
		"POST /api/users/:id/reset-password",
	} {
		require.True(t, routes[want], "missing route %s", want)
	}
	require.False(t, routes["GET /api/debug/vars"])
}

func TestDebugVarsExposeUserCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupContainer(t, true)

	e := gin.New()
	reg := NewRegistry(e, nil)
	InitModules(reg, BuildUserDeps())
	reg.RegisterAll()

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"users_registered": 0`)
	require.Contains(t, w.Body.String(), `"postgres_pool": null`)
}

func TestRegistryAppliesMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	reg := NewRegistry(e, nil)
	reg.Use(func(c *gin.Context) {
		c.Header("X-Test", "applied")
		c.Next()
	})
	reg.Add(pingModule{})
	reg.RegisterAll()
	require.NotPanics(t, reg.RegisterAll)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "applied", w.Header().Get("X-Test"))
}

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func TestPostgresPoolStatsWithoutPool(t *testing.T) {
	container.SetPGPool(nil)
	require.Nil(t, postgresPoolStats())
}
