package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yanqian/doctor-faq/internal/infra/config"
)

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}

// errorHandlingMiddleware renders errors raised by middleware that aborted
// before a handler could report.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		report(c, logger, Report{
			Success:    false,
			StatusCode: httpErr.Status,
			Action:     c.FullPath(),
			Level:      levelFailure,
			Message:    httpErr.Code,
			Detail:     httpErr.detail(),
		})
	}
}

func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	pool := newLimiterPool(cfg)
	return func(c *gin.Context) {
		if isReplay(c.Request.Context()) {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if pool.allow(ip) {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, msgTooManyRequests, "too many requests", nil))
	}
}

// limiterPool keeps one token bucket per client, evicting idle ones.
type limiterPool struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &limiterPool{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:    burst,
		ttl:      5 * time.Minute,
		now:      time.Now,
	}
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	v, ok := p.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.visitors[key] = v
	}
	v.lastSeen = now
	p.cleanupLocked(now)
	return v.limiter.AllowN(now, 1)
}

func (p *limiterPool) cleanupLocked(now time.Time) {
	for key, v := range p.visitors {
		if now.Sub(v.lastSeen) > p.ttl {
			delete(p.visitors, key)
		}
	}
}
