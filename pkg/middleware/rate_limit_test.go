package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// countingRedis implements INCR and EXPIRE over a map.
type countingRedis struct {
	redis.Cmdable
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newCountingRedis() *countingRedis {
	return &countingRedis{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (r *countingRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if r.err != nil {
		cmd.SetErr(r.err)
		return cmd
	}
	r.counts[key]++
	cmd.SetVal(r.counts[key])
	return cmd
}

func (r *countingRedis) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	r.expires[key] = ttl
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func TestRateLimitMiddleware_NilClientPassesThrough(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimitMiddleware(nil, 1, time.Minute))
	router.GET("/test", identityHandler)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitMiddleware_Limit(t *testing.T) {
	rdb := newCountingRedis()
	router := setupTestRouter()
	router.Use(RateLimitMiddleware(rdb, 2, time.Minute))
	router.GET("/test", identityHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Len(t, rdb.expires, 1)
	for key, ttl := range rdb.expires {
		assert.Equal(t, "rate_limit:ip:192.0.2.1:/test", key)
		assert.Equal(t, time.Minute, ttl)
	}
}

func TestRateLimitMiddleware_RedisError(t *testing.T) {
	rdb := newCountingRedis()
	rdb.err = errors.New("connection refused")
	router := setupTestRouter()
	router.Use(RateLimitMiddleware(rdb, 2, time.Minute))
	router.GET("/test", identityHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit check failed")
}

func TestUserRateLimitMiddleware_PerUser(t *testing.T) {
	rdb := newCountingRedis()
	router := setupTestRouter()
	router.GET("/test", func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(ContextUserID, id)
		}
		c.Next()
	}, UserRateLimitMiddleware(rdb, 1, time.Minute), identityHandler)

	get := func(user string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("u-1"))
	assert.Equal(t, http.StatusTooManyRequests, get("u-1"))
	// Same client IP, different account.
	assert.Equal(t, http.StatusOK, get("u-2"))
	// Anonymous requests are left to the per-IP limiter.
	assert.Equal(t, http.StatusOK, get(""))
	assert.Equal(t, http.StatusOK, get(""))

	assert.Equal(t, int64(2), rdb.counts["rate_limit:user:u-1:/test"])
	assert.Equal(t, int64(1), rdb.counts["rate_limit:user:u-2:/test"])
	assert.Len(t, rdb.counts, 2)
}

func TestRateLimitMiddleware_PerClientIP(t *testing.T) {
	rdb := newCountingRedis()
	router := setupTestRouter()
	router.Use(RateLimitMiddleware(rdb, 10, time.Minute))
	router.GET("/test", identityHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = fmt.Sprintf("198.51.100.%d:1234", i)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Len(t, rdb.counts, 3)
	assert.Equal(t, int64(1), rdb.counts["rate_limit:ip:198.51.100.0:/test"])
}
