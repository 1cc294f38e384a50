package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware allows limit requests per window for each client IP.
// A nil client disables limiting.
func RateLimitMiddleware(redisClient redis.Cmdable, limit int, window time.Duration) gin.HandlerFunc {
	return fixedWindow(redisClient, limit, window, func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	})
}

// UserRateLimitMiddleware allows limit requests per window for each
// authenticated user. It must run after AuthMiddleware or OptionalAuth;
// anonymous requests pass through.
func UserRateLimitMiddleware(redisClient redis.Cmdable, limit int, window time.Duration) gin.HandlerFunc {
	return fixedWindow(redisClient, limit, window, func(c *gin.Context) string {
		if id := c.GetString(ContextUserID); id != "" {
			return "user:" + id
		}
		return ""
	})
}

func fixedWindow(redisClient redis.Cmdable, limit int, window time.Duration, subject func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}
		who := subject(c)
		if who == "" {
			c.Next()
			return
		}
		key := fmt.Sprintf("rate_limit:%s:%s", who, c.FullPath())

		ctx := c.Request.Context()
		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Rate limit check failed"})
			return
		}
		if count == 1 {
			redisClient.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
