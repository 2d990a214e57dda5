package middleware

import (
	"context"
	"fmt"
	"time"

	"matholymp/internal/common/cache"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

const defaultRateLimitPrefix = "matholymp:rate"

// RateLimitPolicy limits requests to one route per window. Zero maxima
// disable the corresponding check.
type RateLimitPolicy struct {
	Window  time.Duration `yaml:"window"`
	IPMax   int           `yaml:"ipMax"`
	UserMax int           `yaml:"userMax"`
}

// RateLimiter enforces fixed-window limits using Redis counters.
type RateLimiter struct {
	cache   cache.BasicOps
	prefix  string
	timeout time.Duration
}

func NewRateLimiter(cacheClient cache.BasicOps, prefix string, timeout time.Duration) *RateLimiter {
	if prefix == "" {
		prefix = defaultRateLimitPrefix
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &RateLimiter{cache: cacheClient, prefix: prefix, timeout: timeout}
}

// Allow counts one request against key and fails once max is exceeded.
func (l *RateLimiter) Allow(ctx context.Context, key string, max int, window time.Duration) error {
	if max <= 0 {
		return nil
	}
	if l.cache == nil {
		return pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("rate limit cache is unavailable")
	}
	ctxCache, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	acquired, err := l.cache.SetNX(ctxCache, key, 1, window)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
	}
	var count int64 = 1
	if !acquired {
		count, err = l.cache.Incr(ctxCache, key)
		if err != nil {
			return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
		}
		// A key left without expiry would block the client for good.
		if ttl, ttlErr := l.cache.TTL(ctxCache, key); ttlErr == nil && ttl < 0 {
			_ = l.cache.Expire(ctxCache, key, window)
		}
	}
	if int(count) > max {
		return pkgerrors.New(pkgerrors.TooManyRequests)
	}
	return nil
}

// Middleware limits the route named routeKey. A nil limiter or a policy
// without a window lets every request through.
func (l *RateLimiter) Middleware(routeKey string, policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || policy.Window <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if policy.IPMax > 0 {
			key := fmt.Sprintf("%s:ip:%s:%s", l.prefix, c.ClientIP(), routeKey)
			if err := l.Allow(ctx, key, policy.IPMax, policy.Window); err != nil {
				response.AbortWithError(c, err)
				return
			}
		}
		if policy.UserMax > 0 {
			if p, ok := CurrentPrincipal(c); ok {
				key := fmt.Sprintf("%s:user:%d:%s", l.prefix, p.UserID, routeKey)
				if err := l.Allow(ctx, key, policy.UserMax, policy.Window); err != nil {
					response.AbortWithError(c, err)
					return
				}
			}
		}
		c.Next()
	}
}
