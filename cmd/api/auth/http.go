package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
	ErrForbidden     = errors.New("forbidden_insufficient_permissions")
)

const principalKey = "auth_principal"

// Principal 은 검증된 토큰에서 꺼낸 요청 주체다.
type Principal struct {
	UserID primitive.ObjectID
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// ExtractBearerToken extracts the Bearer token from the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by the auth middleware, if any.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// AbortWithUnauthorized aborts the request with 401 status and error JSON.
func AbortWithUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}

func AbortWithForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Error()})
}
