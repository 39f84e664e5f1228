package handler

import (
	"time"

	"atelier/internal/user/models"
)

// UserResponse is the HTTP representation of an account. The password hash
// never appears here.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromUser converts a domain user to an HTTP response.
func FromUser(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserPageResponse is one page of a user listing.
type UserPageResponse struct {
	Data  []*UserResponse `json:"data"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Pages int             `json:"pages"`
}

// FromUserPage converts a domain listing page to an HTTP response.
func FromUserPage(page *models.UserPage) *UserPageResponse {
	data := make([]*UserResponse, len(page.Data))
	for i, u := range page.Data {
		data[i] = FromUser(u)
	}
	return &UserPageResponse{
		Data:  data,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	}
}
