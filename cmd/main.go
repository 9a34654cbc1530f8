package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/container"
	"github.com/oksasatya/go-user-registry/internal/domain/credential"
	grpcapi "github.com/oksasatya/go-user-registry/internal/interface/grpc"
	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
	"github.com/oksasatya/go-user-registry/internal/registry"
	"github.com/oksasatya/go-user-registry/internal/router"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
	"github.com/oksasatya/go-user-registry/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	container.SetConfig(cfg)
	container.SetLogger(logger)

	// Redis backs the rate limiter and, with STORE_DRIVER=redis, the store
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		container.SetRedis(rdb)
	}

	store, err := container.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer func() { _ = store.Close() }()

	reg, err := registry.Load(ctx, store,
		registry.WithWriteTimeout(cfg.StoreWriteTimeout),
		registry.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("failed to load users: %v", err)
	}
	container.SetRegistry(reg)
	container.SetHasher(credential.NewHasher(cfg.PasswordHashCost))

	if cfg.EventsEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue)
		if err != nil {
			logger.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer pub.Close()
		container.SetPublisher(pub)
	} else {
		container.SetPublisher(application.NopPublisher{})
	}

	deps := router.BuildUserDeps()

	// Gin engine and global middleware
	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxyList())
	if err != nil {
		logger.Fatalf("trusted proxies: %v", err)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		logger.Fatalf("trusted proxies: %v", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(trusted))
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.Env == "development" || cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	routes := router.NewRegistry(r, logger)
	router.InitModules(routes, deps)
	routes.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("http server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	grpcSrv, err := grpcapi.Listen(":"+cfg.GRPCPort, deps.Service, logger)
	if err != nil {
		logger.Fatalf("grpc: %v", err)
	}
	grpcCtx, stopGRPC := context.WithCancel(ctx)
	grpcDone := make(chan error, 1)
	go func() { grpcDone <- grpcSrv.Serve(grpcCtx) }()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-grpcDone:
		logger.Errorf("grpc server stopped: %v", err)
	}
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stopGRPC()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	select {
	case <-grpcDone:
	case <-ctxShutdown.Done():
		grpcSrv.Close()
	}
	logger.Info("server exited properly")
}
