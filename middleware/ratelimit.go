package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/apperror"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/ratelimit"
)

// RateLimit throttles requests per client IP. A nil limiter disables it. When
// Redis is unavailable the request is let through and a warning logged.
func RateLimit(limiter ratelimit.Limiter, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			log.Warn(ctx, "rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			abort(c, apperror.NewTooManyRequests("Too many requests, please try again later."))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}
