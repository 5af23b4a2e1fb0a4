package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/dto"
	"institute-reviews/cmd/api/services"
	"institute-reviews/cmd/api/trace"
	"institute-reviews/cmd/internal/logger"
)

// RegisterHandler godoc
// @Summary      회원가입
// @Description  USER 역할 계정을 만들고 access token 을 발급합니다.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequestDTO  true  "가입 정보"
// @Success      201  {object}  dto.TokenResponseDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/auth/register [post]
func RegisterHandler(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterRequestDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request_body"})
			return
		}
		tok, err := authSvc.Register(c.Request.Context(), services.RegisterInput{
			FirstName:   body.FirstName,
			LastName:    body.LastName,
			City:        body.City,
			Email:       body.Email,
			PhoneNumber: body.PhoneNumber,
			Password:    body.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		logger.InfoWithFields("user registered", logger.Fields{
			"user_id":    tok.User.ID,
			"request_id": trace.RequestIDFromContext(c.Request.Context()),
		})
		c.JSON(http.StatusCreated, tok)
	}
}

// LoginHandler godoc
// @Summary      로그인
// @Description  전화번호와 비밀번호로 로그인합니다. role 을 생략하면 USER 입니다.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequestDTO  true  "로그인 정보"
// @Success      200  {object}  dto.TokenResponseDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/auth/login [post]
func LoginHandler(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginRequestDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request_body"})
			return
		}
		tok, err := authSvc.Login(c.Request.Context(), services.LoginInput{
			PhoneNumber: body.PhoneNumber,
			Password:    body.Password,
			Role:        body.Role,
		})
		if err != nil {
			logger.InfoWithFields("login failed", logger.Fields{
				"error":      err.Error(),
				"request_id": trace.RequestIDFromContext(c.Request.Context()),
			})
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tok)
	}
}

// MeHandler godoc
// @Summary      내 정보 조회
// @Description  Authorization 헤더의 JWT 로 현재 로그인한 사용자의 프로필을 조회합니다.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/auth/me [get]
func MeHandler(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}
		me, err := authSvc.Me(c.Request.Context(), principal.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, me)
	}
}
