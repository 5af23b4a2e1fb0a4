package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"institute-reviews/models"
)

const (
	RoleUser  = models.RoleUser
	RoleAdmin = models.RoleAdmin
)

const defaultIssuer = "institute-reviews"

// JWTManager 는 HS256 단일 시크릿 문자열을 사용해 JWT 를 발급/검증한다.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(secret, issuer string, ttl time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if issuer == "" {
		issuer = defaultIssuer
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// NewJWTManagerFromEnv 는 환경변수에서 시크릿/issuer 를 읽어 JWTManager 를 생성한다.
//
// - JWT_SECRET: HS256 서명에 사용할 시크릿 문자열(필수)
// - JWT_ISSUER: iss 클레임 값(선택, 없으면 issuer 인자, 그것도 없으면 "institute-reviews")
func NewJWTManagerFromEnv(issuer string, ttl time.Duration) (*JWTManager, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if env := os.Getenv("JWT_ISSUER"); env != "" {
		issuer = env
	}
	return NewJWTManager(secret, issuer, ttl)
}

// Sign 은 sub=사용자 ObjectID(hex), role=ADMIN|USER 클레임으로 토큰을 발급한다.
func (m *JWTManager) Sign(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iss":  m.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// TTL returns how long issued tokens stay valid.
func (m *JWTManager) TTL() time.Duration { return m.ttl }

func (m *JWTManager) Parse(tokenString string) (string, string, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return "", "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return "", "", fmt.Errorf("token missing sub claim")
	}

	return sub, role, nil
}
