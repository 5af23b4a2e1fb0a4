package dto

import "time"

// UserDTO는 /api/v1/auth/me 응답 스키마를 나타낸다.
type UserDTO struct {
	ID          string    `json:"id" example:"665f1c2e9b1d4a0012345678"`
	Role        string    `json:"role" example:"USER"`
	FirstName   string    `json:"first_name" example:"Aruzhan"`
	LastName    string    `json:"last_name" example:"Sadykova"`
	City        string    `json:"city" example:"Almaty"`
	Email       string    `json:"email" example:"user@example.com"`
	PhoneNumber string    `json:"phone_number" example:"+77011234567"`
	ImageKey    *string   `json:"image_key,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	Age         *string   `json:"age,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RegisterRequestDTO struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	City        string `json:"city"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type LoginRequestDTO struct {
	PhoneNumber string `json:"phone_number" example:"+77011234567"`
	Password    string `json:"password"`
	Role        string `json:"role" example:"USER"`
}

// TokenResponseDTO 는 로그인/회원가입 성공 시 발급되는 access token 이다.
type TokenResponseDTO struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type" example:"Bearer"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}
