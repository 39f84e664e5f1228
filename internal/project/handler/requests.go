package handler

import (
	"strings"

	"atelier/internal/project/models"
	"atelier/internal/project/service"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	platformstrings "atelier/pkg/platform/strings"
)

// CreateProjectRequest is the HTTP request body for POST /projects.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateProjectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}
	if len(r.Tags) > 50 {
		return dErrors.New(dErrors.CodeValidation, "at most 50 tags are allowed")
	}
	for _, tag := range r.Tags {
		if strings.TrimSpace(tag) == "" {
			return dErrors.New(dErrors.CodeValidation, "tags cannot be blank")
		}
	}
	r.Tags = platformstrings.DedupeAndTrim(r.Tags)
	return nil
}

// UpdateProjectRequest is the HTTP request body for PATCH /projects/{projectID}.
// All fields are optional; absent fields are left untouched.
type UpdateProjectRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Status      *string   `json:"status"`

	// Parsed values (populated by Validate)
	parsedStatus *models.Status
}

// Validate validates and parses the request.
func (r *UpdateProjectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == nil && r.Description == nil && r.Tags == nil && r.Status == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}

	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if trimmed == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		if len(trimmed) > 200 {
			return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
		}
		r.Name = &trimmed
	}
	if r.Tags != nil {
		for _, tag := range *r.Tags {
			if strings.TrimSpace(tag) == "" {
				return dErrors.New(dErrors.CodeValidation, "tags cannot be blank")
			}
		}
		deduped := platformstrings.DedupeAndTrim(*r.Tags)
		r.Tags = &deduped
	}
	if r.Status != nil {
		status, err := models.ParseStatus(*r.Status)
		if err != nil {
			return err
		}
		r.parsedStatus = &status
	}
	return nil
}

// Params converts the validated request into service update parameters.
func (r *UpdateProjectRequest) Params() service.UpdateParams {
	return service.UpdateParams{
		Name:        r.Name,
		Description: r.Description,
		Tags:        r.Tags,
		Status:      r.parsedStatus,
	}
}

// ShareProjectRequest is the HTTP request body for POST /projects/{projectID}/share.
type ShareProjectRequest struct {
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`

	// Parsed values (populated by Validate)
	parsedUserID      id.UserID
	parsedPermissions []models.Permission
}

// Validate validates and parses the request.
func (r *ShareProjectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid user_id")
	}
	r.parsedUserID = userID

	if len(r.Permissions) == 0 {
		return dErrors.New(dErrors.CodeValidation, "permissions cannot be empty")
	}
	r.parsedPermissions = make([]models.Permission, 0, len(r.Permissions))
	seen := make(map[models.Permission]bool, len(r.Permissions))
	for _, raw := range r.Permissions {
		perm, err := models.ParsePermission(raw)
		if err != nil {
			return err
		}
		if seen[perm] {
			continue
		}
		seen[perm] = true
		r.parsedPermissions = append(r.parsedPermissions, perm)
	}
	return nil
}

// ParsedUserID returns the validated target user ID.
func (r *ShareProjectRequest) ParsedUserID() id.UserID {
	return r.parsedUserID
}

// ParsedPermissions returns the validated, deduplicated permission set.
func (r *ShareProjectRequest) ParsedPermissions() []models.Permission {
	return r.parsedPermissions
}

// TransferOwnerRequest is the HTTP request body for
// POST /projects/{projectID}/transfer-owner.
type TransferOwnerRequest struct {
	NewOwnerID string `json:"new_owner_id"`

	// Parsed values (populated by Validate)
	parsedNewOwnerID id.UserID
}

// Validate validates and parses the request.
func (r *TransferOwnerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.NewOwnerID = strings.TrimSpace(r.NewOwnerID)
	if r.NewOwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "new_owner_id is required")
	}
	newOwnerID, err := id.ParseUserID(r.NewOwnerID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid new_owner_id")
	}
	r.parsedNewOwnerID = newOwnerID
	return nil
}

// ParsedNewOwnerID returns the validated new owner ID.
func (r *TransferOwnerRequest) ParsedNewOwnerID() id.UserID {
	return r.parsedNewOwnerID
}
