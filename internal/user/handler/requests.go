package handler

import (
	"strings"

	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

// CreateUserRequest is the HTTP request body for POST /users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`

	// Parsed values (populated by Validate)
	parsedRole id.Role
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	// Name is optional; when omitted the account service derives one from
	// the email local part.
	r.Name = strings.TrimSpace(r.Name)
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}

	if r.Role != "" {
		role, err := id.ParseRole(r.Role)
		if err != nil {
			return err
		}
		r.parsedRole = role
	}
	return nil
}

// ParsedRole returns the validated role, empty when the request left it
// unset.
func (r *CreateUserRequest) ParsedRole() id.Role {
	return r.parsedRole
}

// UpdateUserRequest is the HTTP request body for PATCH /users/{userID}.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// Validate validates the request.
func (r *UpdateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == nil && r.Password == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if trimmed == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		r.Name = &trimmed
	}
	return nil
}
