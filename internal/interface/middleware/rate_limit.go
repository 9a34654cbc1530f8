package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-user-registry/pkg/apperror"
	"github.com/oksasatya/go-user-registry/pkg/response"
)

// ipFromCtx returns the address RealIP resolved, else the socket peer.
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(RealIPKey); ip != "" {
		return ip
	}
	if ip := c.RemoteIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds the counter key for a request.
type KeyFunc func(c *gin.Context) string

// AllowFunc reports whether a request bypasses the limiter.
type AllowFunc func(*gin.Context) bool

// KeyByIP shares one budget across every route for a client.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath gives each route pattern its own budget per client.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// Limit is one fixed-window policy. Max <= 0 or a zero Window disables it.
type Limit struct {
	Max    int
	Window time.Duration
	Key    KeyFunc
	Allow  AllowFunc
}

func (l Limit) enabled() bool { return l.Max > 0 && l.Window > 0 && l.Key != nil }

// hitScript counts a hit, starts the window on the first one and returns
// {count, remaining window in ms}.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RateLimit enforces l with counters in rdb. Without redis, or when redis
// fails, requests pass.
func RateLimit(rdb *redis.Client, l Limit) gin.HandlerFunc {
	if rdb == nil || !l.enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (l.Allow != nil && l.Allow(c)) {
			c.Next()
			return
		}
		res, err := hitScript.Run(c.Request.Context(), rdb, []string{l.Key(c)}, l.Window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			c.Next()
			return
		}
		if !admit(c, l, res[0], time.Duration(res[1])*time.Millisecond) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// admit writes the X-RateLimit-* headers for a window holding count hits that
// expires in ttl, and the 429 envelope once count exceeds l.Max.
func admit(c *gin.Context, l Limit, count int64, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = l.Window
	}
	reset := int((ttl + time.Second - 1) / time.Second)
	remaining := int64(l.Max) - count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(l.Max))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.Itoa(reset))
	if count <= int64(l.Max) {
		return true
	}
	c.Header("Retry-After", strconv.Itoa(reset))
	response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", response.ErrorBody{
		Kind: "rate_limited",
		Code: string(apperror.CodeRateLimited),
	})
	return false
}
