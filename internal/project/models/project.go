// Package models defines the project aggregate and its sharing ledger.
package models

import (
	"strings"
	"time"

	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

// Permission is a capability token granted through sharing. The vocabulary is
// open at the storage level but API input is validated against the known
// tokens before it reaches the ledger.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// ParsePermission validates a permission token from API input.
func ParsePermission(s string) (Permission, error) {
	switch Permission(s) {
	case PermissionView, PermissionEdit:
		return Permission(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown permission: %q", s)
}

// Status tracks project progress. Descriptive payload only; it plays no part
// in authorization.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// ParseStatus validates a status value from API input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusDone:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown status: %q", s)
}

// ShareEntry grants a set of permissions to one user on one project.
type ShareEntry struct {
	UserID      id.UserID    `json:"user_id"`
	Permissions []Permission `json:"permissions"`
}

// Has reports whether the entry grants the given permission.
func (e ShareEntry) Has(p Permission) bool {
	for _, granted := range e.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// Project is the aggregate root for a collaborative project.
//
// Invariants:
//   - OwnerID names exactly one user and is only reassigned via TransferOwner
//   - SharedWith holds at most one entry per user; SetShare replaces, never
//     appends a duplicate
//   - A share entry's permission set is never empty
//   - Version increments on every persisted write; stores reject stale writes
type Project struct {
	ID          id.ProjectID `json:"id"`
	OwnerID     id.UserID    `json:"owner"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Status      Status       `json:"status"`
	SharedWith  []ShareEntry `json:"shared_with"`
	Version     int64        `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewProject constructs a project owned by ownerID with an empty sharing
// ledger.
func NewProject(projectID id.ProjectID, ownerID id.UserID, name, description string, tags []string, now time.Time) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project name cannot be empty")
	}
	if len(name) > 200 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project name must be 200 characters or less")
	}
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project owner is required")
	}
	return &Project{
		ID:          projectID,
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Tags:        tags,
		Status:      StatusTodo,
		SharedWith:  []ShareEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ShareFor returns the share entry for userID, if any.
func (p *Project) ShareFor(userID id.UserID) (ShareEntry, bool) {
	for _, entry := range p.SharedWith {
		if entry.UserID == userID {
			return entry, true
		}
	}
	return ShareEntry{}, false
}

// SetShare grants permissions to userID. An existing entry's permission set
// is replaced wholesale (last write wins, not a union); otherwise a new entry
// is appended. Entry order carries no meaning; lookups go by user ID.
func (p *Project) SetShare(userID id.UserID, permissions []Permission, now time.Time) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "share target user is required")
	}
	if len(permissions) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "permission set cannot be empty")
	}

	// Own the permission set; the ledger must not alias a slice the caller
	// may keep mutating.
	granted := append([]Permission(nil), permissions...)

	for i, entry := range p.SharedWith {
		if entry.UserID == userID {
			p.SharedWith[i].Permissions = granted
			p.UpdatedAt = now
			return nil
		}
	}
	p.SharedWith = append(p.SharedWith, ShareEntry{UserID: userID, Permissions: granted})
	p.UpdatedAt = now
	return nil
}

// TransferOwner reassigns the single owner field. A pre-existing share entry
// for the new owner is deliberately retained; owner status dominates whatever
// the stale entry says.
func (p *Project) TransferOwner(newOwnerID id.UserID, now time.Time) error {
	if newOwnerID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "new owner is required")
	}
	p.OwnerID = newOwnerID
	p.UpdatedAt = now
	return nil
}

// HasTag reports whether the project carries the given tag.
func (p *Project) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so in-memory stores never hand out aliased state.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.SharedWith = make([]ShareEntry, len(p.SharedWith))
	for i, entry := range p.SharedWith {
		cp.SharedWith[i] = ShareEntry{
			UserID:      entry.UserID,
			Permissions: append([]Permission(nil), entry.Permissions...),
		}
	}
	return &cp
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Data  []*Project `json:"data"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Pages int        `json:"pages"`
}

// NewProjectPage computes the page count: ceil(total/limit), zero when there
// are no matches at all.
func NewProjectPage(data []*Project, total, page, limit int) *ProjectPage {
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return &ProjectPage{Data: data, Total: total, Page: page, Limit: limit, Pages: pages}
}
