package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-user-registry/internal/interface/http"
	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
)

// PasswordVerifyPerMinute caps password checks per client IP, independent of
// the general budget and of any allow rule.
const PasswordVerifyPerMinute = 10

// UserModule wires user HTTP handlers into routes under the given
// RouterGroup (usually /api):
//
//	POST /users, GET /users, GET /users/:id, PUT /users/:id,
//	GET /users/:id/exists, PUT /users/:id/password,
//	POST /users/:id/password/verify, POST /users/:id/reset-password
type UserModule struct {
	Handler   *handlers.UserHandler
	Redis     *redis.Client
	RateLimit int // per client IP per minute; 0 disables
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, rateLimit int) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, RateLimit: rateLimit}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.RateLimit(m.Redis, middleware.Limit{
		Max:    m.RateLimit,
		Window: time.Minute,
		Key:    middleware.KeyByIP(),
		Allow:  middleware.AllowPrivateIP(),
	}))

	// Password checks are limited per route so they cannot be brute forced
	// under the general budget.
	passwordLimiter := middleware.RateLimit(m.Redis, middleware.Limit{
		Max:    PasswordVerifyPerMinute,
		Window: time.Minute,
		Key:    middleware.KeyByIPAndPath(),
	})
	{
		users.POST("", m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.GET("/:id/exists", m.Handler.Exists)
		users.PUT("/:id/password", m.Handler.SetPassword)
		users.POST("/:id/password/verify", passwordLimiter, m.Handler.VerifyPassword)
		users.POST("/:id/reset-password", m.Handler.ResetPassword)
	}
}
