// Package models defines the user account aggregate.
package models

import (
	"strings"
	"time"

	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

// User is an account in the directory. PasswordHash is a bcrypt hash and
// never leaves the service layer.
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         id.Role   `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser constructs a user. Emails are stored lowercased; uniqueness is
// enforced by the store.
func NewUser(userID id.UserID, email, name, passwordHash string, role id.Role, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "a valid email is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	return &User{
		ID:           userID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail canonicalizes an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Clone returns a copy so stores never hand out aliased state.
func (u *User) Clone() *User {
	cp := *u
	return &cp
}

// UserPage is one page of a user listing.
type UserPage struct {
	Data  []*User `json:"data"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
	Pages int     `json:"pages"`
}

// NewUserPage computes the page count: ceil(total/limit), zero when there are
// no users at all.
func NewUserPage(data []*User, total, page, limit int) *UserPage {
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return &UserPage{Data: data, Total: total, Page: page, Limit: limit, Pages: pages}
}
