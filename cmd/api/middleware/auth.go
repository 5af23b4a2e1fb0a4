package middleware

import (
	"github.com/gin-gonic/gin"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/trace"
	"institute-reviews/cmd/internal/logger"
)

// TokenParser 는 access token 을 검증해 요청 주체를 돌려준다. services.AuthService 가 구현한다.
type TokenParser interface {
	ParseAccessToken(token string) (auth.Principal, error)
}

// RequireUser 는 유효한 Bearer 토큰이 있어야 통과시키고, 주체를 컨텍스트에 저장한다.
func RequireUser(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}
		principal, err := parser.ParseAccessToken(token)
		if err != nil {
			logger.DebugWithFields("token parse error", logger.Fields{
				"error":      err.Error(),
				"request_id": trace.RequestIDFromContext(c.Request.Context()),
			})
			auth.AbortWithUnauthorized(c, errInvalidToken)
			return
		}
		auth.SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireAdmin 은 RequireUser 뒤에 붙여 ADMIN 역할만 통과시킨다.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}
		if !principal.IsAdmin() {
			logger.InfoWithFields("access denied", logger.Fields{
				"user_id":    principal.UserID.Hex(),
				"role":       principal.Role,
				"want_role":  auth.RoleAdmin,
				"request_id": trace.RequestIDFromContext(c.Request.Context()),
			})
			auth.AbortWithForbidden(c)
			return
		}
		c.Next()
	}
}

// OptionalUser 는 토큰이 없으면 익명으로 통과시키고, 있으면 검증해 주체를 저장한다.
// 토큰이 있으나 유효하지 않으면 401 이다.
func OptionalUser(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		RequireUser(parser)(c)
	}
}
