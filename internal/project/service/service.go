//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Package service orchestrates project operations: every read or mutation
// loads the latest project state, runs the access evaluator, and only then
// touches storage. Denials are decided before any write (check-then-act).
package service

import (
	"context"
	"errors"
	"log/slog"

	"atelier/internal/audit"
	"atelier/internal/project/access"
	"atelier/internal/project/metrics"
	"atelier/internal/project/models"
	"atelier/internal/project/store"
	"atelier/pkg/attrs"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/requestcontext"
)

// ProjectStore is the storage collaborator. Update must be a conditional
// write on the project version; the service never holds an in-process lock
// across the read-decide-write cycle.
type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, projectID id.ProjectID) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, projectID id.ProjectID) error
	List(ctx context.Context, filter store.Filter, offset, limit int) ([]*models.Project, int, error)
}

// UserDirectory resolves referenced users so share and transfer targets that
// do not exist surface as not-found instead of dangling references.
type UserDirectory interface {
	Exists(ctx context.Context, userID id.UserID) (bool, error)
}

// AuditPublisher records domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates project management.
type Service struct {
	projects       ProjectStore
	users          UserDirectory
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service. users may be nil when no user directory is wired;
// share and transfer targets are then taken on faith.
func New(projects ProjectStore, users UserDirectory, opts ...Option) *Service {
	s := &Service{projects: projects, users: users}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries the caller-supplied fields for a new project.
type CreateParams struct {
	Name        string
	Description string
	Tags        []string
}

// Create makes principal the owner of a new project with an empty sharing
// ledger.
func (s *Service) Create(ctx context.Context, principal access.Principal, params CreateParams) (*models.Project, error) {
	p, err := models.NewProject(id.NewProjectID(), principal.ID, params.Name, params.Description, params.Tags, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.projects.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create project")
	}

	s.logAudit(ctx, audit.EventProjectCreated,
		"user_id", principal.ID.String(),
		"project_id", p.ID.String())
	if s.metrics != nil {
		s.metrics.ProjectsCreated.Inc()
	}
	return p, nil
}

// Get returns the project if principal may read it. Denial and not-found are
// distinct outcomes by policy, applied uniformly across all operations.
func (s *Service) Get(ctx context.Context, principal access.Principal, projectID id.ProjectID) (*models.Project, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, principal, access.CapabilityRead); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateParams carries optional content updates; nil fields stay untouched.
type UpdateParams struct {
	Name        *string
	Description *string
	Tags        *[]string
	Status      *models.Status
}

// Update applies content changes if principal may write. The sharing ledger
// and owner are never touched here; those go through Share and TransferOwner.
func (s *Service) Update(ctx context.Context, principal access.Principal, projectID id.ProjectID, params UpdateParams) (*models.Project, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, principal, access.CapabilityWrite); err != nil {
		return nil, err
	}

	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	if params.Tags != nil {
		p.Tags = *params.Tags
	}
	if params.Status != nil {
		p.Status = *params.Status
	}
	p.UpdatedAt = requestcontext.Now(ctx)

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventProjectUpdated,
		"user_id", principal.ID.String(),
		"project_id", p.ID.String())
	return p, nil
}

// List returns the page of projects visible to principal: owned or shared
// with, optionally narrowed by a case-insensitive name search.
func (s *Service) List(ctx context.Context, principal access.Principal, page, limit int, search string) (*models.ProjectPage, error) {
	if err := validatePagination(page, limit); err != nil {
		return nil, err
	}

	filter := access.ListFilter(principal, search)
	offset := (page - 1) * limit
	items, total, err := s.projects.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projects")
	}
	return models.NewProjectPage(items, total, page, limit), nil
}

// ListAll is the administrative listing across every project. Non-admins are
// denied outright.
func (s *Service) ListAll(ctx context.Context, principal access.Principal, page, limit int, search string) (*models.ProjectPage, error) {
	if !principal.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if err := validatePagination(page, limit); err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	items, total, err := s.projects.List(ctx, access.AdminListFilter(search), offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projects")
	}
	return models.NewProjectPage(items, total, page, limit), nil
}

// FindByTag returns projects visible to principal that carry the tag.
func (s *Service) FindByTag(ctx context.Context, principal access.Principal, tag string) ([]*models.Project, error) {
	if tag == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tag is required")
	}

	items, _, err := s.projects.List(ctx, access.TagFilter(principal, tag), 0, -1)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find projects by tag")
	}
	return items, nil
}

// Share grants userID the given permissions on the project, replacing any
// existing grant wholesale. Requires the administer capability, so only
// admins reshape the ledger.
func (s *Service) Share(ctx context.Context, principal access.Principal, projectID id.ProjectID, userID id.UserID, permissions []models.Permission) (*models.Project, error) {
	if len(permissions) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "permission set cannot be empty")
	}

	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, principal, access.CapabilityAdminister); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := p.SetShare(userID, permissions, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventProjectShared,
		"user_id", principal.ID.String(),
		"project_id", p.ID.String(),
		"target_user_id", userID.String())
	if s.metrics != nil {
		s.metrics.ProjectsShared.Inc()
	}
	return p, nil
}

// TransferOwner reassigns the project's owner. Requires the administer
// capability; the current owner acting alone cannot self-transfer. A stale
// share entry for the new owner is left in place, and owner status dominates
// whatever it says.
func (s *Service) TransferOwner(ctx context.Context, principal access.Principal, projectID id.ProjectID, newOwnerID id.UserID) (*models.Project, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, principal, access.CapabilityAdminister); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, newOwnerID); err != nil {
		return nil, err
	}

	if err := p.TransferOwner(newOwnerID, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventOwnerTransferred,
		"user_id", principal.ID.String(),
		"project_id", p.ID.String(),
		"new_owner_id", newOwnerID.String())
	if s.metrics != nil {
		s.metrics.OwnershipTransfers.Inc()
	}
	return p, nil
}

// Delete removes the project permanently, shares included. Restricted to the
// owner and admins; write access via a share is not enough to destroy the
// project.
func (s *Service) Delete(ctx context.Context, principal access.Principal, projectID id.ProjectID) error {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID != principal.ID && !principal.Role.IsAdmin() {
		if s.metrics != nil {
			s.metrics.AccessDenied.WithLabelValues("delete").Inc()
		}
		s.logAudit(ctx, audit.EventProjectAccessDenied,
			"user_id", principal.ID.String(),
			"project_id", p.ID.String(),
			"capability", "delete",
			"reason", "only the owner or an admin can delete a project")
		return dErrors.New(dErrors.CodeForbidden, "access denied: only the owner or an admin can delete a project")
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete project")
	}

	s.logAudit(ctx, audit.EventProjectDeleted,
		"user_id", principal.ID.String(),
		"project_id", p.ID.String())
	return nil
}

func (s *Service) load(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p *models.Project) error {
	if err := s.projects.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "project not found")
		case errors.Is(err, sentinel.ErrVersionMismatch):
			return dErrors.New(dErrors.CodeConflict, "project was modified concurrently, retry with fresh state")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
		}
	}
	return nil
}

// authorize runs the pure evaluator against freshly loaded state and turns a
// denial into a forbidden error carrying the evaluator's reason.
func (s *Service) authorize(ctx context.Context, p *models.Project, principal access.Principal, capability access.Capability) error {
	decision := access.Evaluate(p, principal, capability)
	if decision.Allowed {
		return nil
	}

	if s.metrics != nil {
		s.metrics.AccessDenied.WithLabelValues(string(capability)).Inc()
	}
	s.logAudit(ctx, audit.EventProjectAccessDenied,
		"user_id", principal.ID.String(),
		"project_id", p.ID.String(),
		"capability", string(capability),
		"reason", decision.Reason)
	return dErrors.Newf(dErrors.CodeForbidden, "access denied: %s", decision.Reason)
}

func (s *Service) requireUser(ctx context.Context, userID id.UserID) error {
	if s.users == nil {
		return nil
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
	}
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}

func validatePagination(page, limit int) error {
	if page < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "page must be at least 1")
	}
	if limit < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "limit must be at least 1")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    attrs.ExtractString(attributes, "user_id"),
		Subject:   attrs.ExtractString(attributes, "project_id"),
		Action:    event,
		Reason:    attrs.ExtractString(attributes, "reason"),
	})
}
