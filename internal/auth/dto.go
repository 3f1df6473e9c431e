package auth

import (
	"time"

	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
)

type RegisterDTO struct {
	Username        string `json:"username" validate:"required,min=3,max=32"`
	FirstName       string `json:"firstName" validate:"required,min=1,max=50"`
	LastName        string `json:"lastName" validate:"required,min=1,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Company         string `json:"company" validate:"max=255"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=demo client"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	ClientIP string `json:"-"`
}

// RefreshTokenDTO may be empty when the refresh token travels in a cookie.
type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordDTO struct {
	Email  string `json:"email" validate:"required,email"`
	Origin string `json:"origin" validate:"omitempty,url"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginResponse struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToUserResponse(u *userDatamodel.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Company:   u.Company,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}
