package handler

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/service"
)

// RateLimiter decides whether a keyed request fits its window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*service.RateLimitResult, error)
}

// RateLimitMiddleware creates a rate limiting middleware. Limiter failures let
// the request through.
func RateLimitMiddleware(limiter RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		result, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			_ = c.Error(domain.NewTooManyRequestsError("too many requests, try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RouteAndIPKey limits each route separately per client IP.
func RouteAndIPKey(c *gin.Context) string {
	return c.FullPath() + ":" + c.ClientIP()
}
