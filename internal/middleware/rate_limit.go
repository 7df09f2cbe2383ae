package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/swivelcare/swivel-api/internal/config"
)

// RateLimitMiddleware creates a rate limiting middleware keyed on user id
// when authenticated, client IP otherwise.
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  int64(cfg.RateLimit.RequestsPerMinute),
	}

	// In-memory store; per-instance limits are acceptable for this service.
	store := memory.NewStore()
	rateLimiter := limiter.New(store, rate)

	return func(c *gin.Context) {
		key := clientKey(c)

		limitCtx, err := rateLimiter.Get(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Rate limit error",
				"message": "Failed to check rate limit",
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limitCtx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limitCtx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", limitCtx.Reset))

		if limitCtx.Reached {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	if userID := GetUserID(c); userID != "" {
		return fmt.Sprintf("user:%s", userID)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}
