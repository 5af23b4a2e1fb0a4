package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/dto"
	"institute-reviews/models"
	"institute-reviews/repositories"
)

// AccountStore 는 회원가입/로그인에 필요한 users 컬렉션 계약이다.
type AccountStore interface {
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByPhone(ctx context.Context, role, phone string) (*models.User, error)
}

type AuthService struct {
	users      AccountStore
	jwtManager *auth.JWTManager
	validate   *validator.Validate
	now        func() time.Time
}

var errInvalidCredentials = errors.New("invalid phone number or password")

func NewAuthService(users AccountStore, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		now:        time.Now,
	}
}

type RegisterInput struct {
	FirstName   string `validate:"required,max=100"`
	LastName    string `validate:"required,max=100"`
	City        string `validate:"max=100"`
	Email       string `validate:"required,email"`
	PhoneNumber string `validate:"required,min=5,max=20"`
	Password    string `validate:"required,min=8,max=72"`
}

type LoginInput struct {
	PhoneNumber string `validate:"required"`
	Password    string `validate:"required"`
	Role        string `validate:"omitempty,oneof=USER ADMIN"`
}

// Register 는 USER 역할의 계정을 만들고 바로 access token 을 발급한다.
// 관리자 계정은 이 API 로 만들 수 없다.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*dto.TokenResponseDTO, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidArgument("%s", validationMessage(err))
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.Insert(ctx, &models.User{
		Role:         models.RoleUser,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		City:         in.City,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("phone number or email already registered: %w", ErrConflict)
		}
		return nil, classifyStoreErr("register user", err)
	}
	return s.issue(user)
}

// Login 은 전화번호+비밀번호로 인증한다. Role 이 비어 있으면 USER 로 간주한다.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*dto.TokenResponseDTO, error) {
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidArgument("%s", validationMessage(err))
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	user, err := s.users.FindByPhone(ctx, in.Role, in.PhoneNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errInvalidCredentials)
		}
		return nil, classifyStoreErr("login", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errInvalidCredentials)
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*dto.TokenResponseDTO, error) {
	token, err := s.jwtManager.Sign(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("jwt sign: %w", err)
	}
	return &dto.TokenResponseDTO{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   s.now().Add(s.jwtManager.TTL()).UTC(),
		User:        mapUser(user),
	}, nil
}

// Me 는 토큰 주체의 프로필을 반환한다.
func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*dto.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, classifyStoreErr("load profile", err)
	}
	d := mapUser(user)
	return &d, nil
}

// ParseAccessToken 은 토큰을 검증하고 요청 주체를 돌려준다.
func (s *AuthService) ParseAccessToken(token string) (auth.Principal, error) {
	sub, role, err := s.jwtManager.Parse(token)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	id, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: token subject is not a user id", ErrUnauthorized)
	}
	return auth.Principal{UserID: id, Role: role}, nil
}

func mapUser(u *models.User) dto.UserDTO {
	return dto.UserDTO{
		ID:          u.ID.Hex(),
		Role:        u.Role,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		City:        u.City,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		ImageKey:    u.ImageKey,
		Gender:      u.Gender,
		Age:         u.Age,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
