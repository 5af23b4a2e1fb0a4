package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/trace"
	"institute-reviews/cmd/internal/logger"
)

const headerRequestID = "X-Request-Id"

// RequestTrace는 모든 inbound HTTP 요청에 Request ID를 보장하고,
// 이를 컨텍스트/응답 헤더에 저장한 뒤 요청 완료 로그에 포함시킨다.
func RequestTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		requestID := req.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = trace.GenerateID()
		}
		c.Request = req.WithContext(trace.WithRequestID(req.Context(), requestID))
		c.Request.Header.Set(headerRequestID, requestID)
		c.Writer.Header().Set(headerRequestID, requestID)

		c.Next()

		fields := logger.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"route":      c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": requestID,
			"client_ip":  c.ClientIP(),
		}
		if p, ok := auth.PrincipalFrom(c); ok {
			fields["user_id"] = p.UserID.Hex()
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.ErrorWithFields("completed request", fields)
		case c.Writer.Status() >= 400:
			logger.WarnWithFields("completed request", fields)
		default:
			logger.InfoWithFields("completed request", fields)
		}
	}
}
