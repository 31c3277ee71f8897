package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mirae-labs/go-mirae/pkg/config"
	"github.com/mirae-labs/go-mirae/pkg/ratelimit"
	"github.com/mirae-labs/go-mirae/pkg/server"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(requests, windowSeconds int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(server.RateLimit(ratelimit.NewMemoryLimiter(), config.RateLimitConfig{
		Requests:      requests,
		WindowSeconds: windowSeconds,
	}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func ping(r *gin.Engine, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitAllowsWithinQuota(t *testing.T) {
	r := limitedRouter(3, 60)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ping(r, "s1").Code)
	}
}

func TestRateLimitRejectsOverQuota(t *testing.T) {
	r := limitedRouter(2, 60)
	ping(r, "s1")
	ping(r, "s1")

	w := ping(r, "s1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "quota_exceeded")
}

func TestRateLimitSeparatesSessions(t *testing.T) {
	r := limitedRouter(1, 60)
	assert.Equal(t, http.StatusOK, ping(r, "s1").Code)
	assert.Equal(t, http.StatusTooManyRequests, ping(r, "s1").Code)
	assert.Equal(t, http.StatusOK, ping(r, "s2").Code)
}
