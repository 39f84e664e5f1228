package handler

import (
	"time"

	"atelier/internal/auth/service"
	usermodels "atelier/internal/user/models"
)

// UserResponse is the account portion of auth responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// FromUser converts a domain user to an HTTP response.
func FromUser(u *usermodels.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// LoginResponse is the HTTP response for POST /auth/login.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *UserResponse `json:"user"`
}

// FromLoginResult converts a login outcome to an HTTP response.
func FromLoginResult(result *service.LoginResult) *LoginResponse {
	return &LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(result.ExpiresIn.Seconds()),
		User:        FromUser(result.User),
	}
}
