package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/domain/credential"
	"github.com/oksasatya/go-user-registry/internal/registry"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	userRegistry *registry.Registry
	hasher       *credential.Hasher
	publisher    application.EventPublisher
)

func SetConfig(c *config.Config)       { cfg = c }
func GetConfig() *config.Config        { return cfg }
func SetLogger(l *logrus.Logger)       { logger = l }
func GetLogger() *logrus.Logger        { return logger }
func SetPGPool(p *pgxpool.Pool)        { pgPool = p }
func GetPGPool() *pgxpool.Pool         { return pgPool }
func SetRedis(r *redis.Client)         { redisClient = r }
func GetRedis() *redis.Client          { return redisClient }
func SetRegistry(r *registry.Registry) { userRegistry = r }
func GetRegistry() *registry.Registry  { return userRegistry }
func SetHasher(h *credential.Hasher)   { hasher = h }
func GetHasher() *credential.Hasher {
	if hasher != nil {
		return hasher
	}
	return credential.Default
}

func SetPublisher(p application.EventPublisher) { publisher = p }
func GetPublisher() application.EventPublisher {
	if publisher != nil {
		return publisher
	}
	return application.NopPublisher{}
}
