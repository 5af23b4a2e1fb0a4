package middleware

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/ratelimit"
	"institute-reviews/cmd/api/trace"
	"institute-reviews/cmd/internal/logger"
)

// RateLimit 은 요청 주체(없으면 client IP)별로 limiter 를 적용한다.
// limiter 가 nil 이면 제한하지 않는다. limiter 장애 시에는 요청을 통과시킨다.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := scope + ":ip:" + c.ClientIP()
		if p, ok := auth.PrincipalFrom(c); ok {
			key = scope + ":user:" + p.UserID.Hex()
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.ErrorWithFields("rate limiter unavailable", logger.Fields{
				"error":      err.Error(),
				"key":        key,
				"request_id": trace.RequestIDFromContext(c.Request.Context()),
			})
			c.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too_many_requests",
				"retry_after": seconds,
			})
			return
		}
		c.Next()
	}
}
