package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/bagarji/library/config"
	"github.com/bagarji/library/utils"
)

const limiterIdleTTL = 5 * time.Minute

type ipLimiter struct {
	bucket  *rate.Limiter
	expires time.Time
}

var (
	ipLimiters = map[string]*ipLimiter{}
	limitersMu sync.Mutex
)

// RateLimitMiddleware throttles requests per client IP with a token bucket
// sized from config. It guards the auth surface against brute force.
func RateLimitMiddleware() gin.HandlerFunc {
	cfg := config.Get()
	perMinute := cfg.RateLimitPerMinute
	if perMinute < 1 {
		perMinute = 1
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := perMinute / 2
	if burst < 1 {
		burst = 1
	}

	return func(ctx *gin.Context) {
		if !takeToken(ctx.ClientIP(), limit, burst) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func takeToken(ip string, limit rate.Limit, burst int) bool {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	now := time.Now()
	for key, l := range ipLimiters {
		if now.After(l.expires) {
			delete(ipLimiters, key)
		}
	}

	l, ok := ipLimiters[ip]
	if !ok {
		l = &ipLimiter{bucket: rate.NewLimiter(limit, burst)}
		ipLimiters[ip] = l
	}
	l.expires = now.Add(limiterIdleTTL)
	return l.bucket.Allow()
}
