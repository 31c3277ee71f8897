package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirae-labs/go-mirae/pkg/config"
	"github.com/mirae-labs/go-mirae/pkg/ratelimit"
	"github.com/mirae-labs/go-mirae/pkg/server/dto"
)

// RateLimit enforces the sliding window per client. The session header wins
// over the client IP so one user behind a NAT is not throttled by neighbors.
func RateLimit(limiter ratelimit.Limiter, cfg config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader("X-Session-ID")
		if clientID == "" {
			clientID = c.ClientIP()
		}

		decision, err := limiter.Check(c.Request.Context(), clientID, cfg.Requests, cfg.Window())
		if err != nil {
			// Limiter trouble never blocks a reading.
			c.Next()
			return
		}
		if !decision.Allowed {
			retry := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:      "quota_exceeded",
				Message:    "too many requests, slow down",
				RetryAfter: retry,
			})
			return
		}
		c.Next()
	}
}
