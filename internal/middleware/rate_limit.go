// internal/middleware/rate_limit.go
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/plugin-marketplace/internal/config"
	"github.com/javajoker/plugin-marketplace/internal/i18n"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

const (
	visitorCleanupInterval = time.Minute
	visitorIdleTimeout     = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		done:     make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(visitorCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTimeout {
			delete(rl.visitors, ip)
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) retryAfter() int {
	if rl.rate <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(rl.rate)))
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getVisitor(c.ClientIP())

		if !limiter.Allow() {
			c.Header("Retry-After", strconv.Itoa(rl.retryAfter()))
			lang := utils.GetLangFromContext(c)
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, i18n.KeyRateLimited), nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimiters groups the per-route-class limiters built from configuration.
// A nil limiter lets every request through.
type RateLimiters struct {
	General *RateLimiter
	Auth    *RateLimiter
	Upload  *RateLimiter
}

func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	rls := &RateLimiters{}
	if cfg.GeneralPerSecond > 0 {
		burst := cfg.GeneralBurst
		if burst < cfg.GeneralPerSecond {
			burst = cfg.GeneralPerSecond
		}
		rls.General = NewRateLimiter(rate.Limit(cfg.GeneralPerSecond), burst)
	}
	if cfg.AuthPerMinute > 0 {
		rls.Auth = NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.AuthPerMinute)), cfg.AuthPerMinute)
	}
	if cfg.UploadPerMinute > 0 {
		rls.Upload = NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.UploadPerMinute)), cfg.UploadPerMinute)
	}
	return rls
}

func limit(rl *RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Middleware()
}

func (r *RateLimiters) GeneralRateLimit() gin.HandlerFunc {
	return limit(r.General)
}

func (r *RateLimiters) AuthRateLimit() gin.HandlerFunc {
	return limit(r.Auth)
}

func (r *RateLimiters) UploadRateLimit() gin.HandlerFunc {
	return limit(r.Upload)
}

func (r *RateLimiters) Stop() {
	for _, rl := range []*RateLimiter{r.General, r.Auth, r.Upload} {
		if rl != nil {
			rl.Stop()
		}
	}
}
