// Package service orchestrates user account management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"atelier/internal/audit"
	"atelier/internal/platform/metrics"
	"atelier/internal/user/models"
	"atelier/pkg/attrs"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/email"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/requestcontext"
)

// UserStore is the storage collaborator for user accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int, error)
}

// AuditPublisher records domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates user account operations.
type Service struct {
	users          UserStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	bcryptCost     int
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

// WithBcryptCost overrides the bcrypt cost. Tests lower it to keep hashing
// fast.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// New constructs a user Service.
func New(users UserStore, opts ...Option) *Service {
	s := &Service{users: users, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries the fields for a new account.
type CreateParams struct {
	Email    string
	Name     string
	Password string
	Role     id.Role
}

// Create registers a new account. The role defaults to user when unset; a
// taken email yields a conflict.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.User, error) {
	if len(params.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	role := params.Role
	if role == "" {
		role = id.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		first, last := email.DeriveNameFromEmail(params.Email)
		name = first + " " + last
	}

	u, err := models.NewUser(id.NewUserID(), params.Email, name, string(hash), role, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, audit.EventUserCreated, "user_id", u.ID.String(), "role", string(u.Role))
	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	return u, nil
}

// Authenticate verifies email and password. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return u, nil
}

// Get returns the user or a not-found error.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// UpdateParams carries optional account updates; nil fields stay untouched.
type UpdateParams struct {
	Name     *string
	Password *string
}

// Update applies account changes.
func (s *Service) Update(ctx context.Context, userID id.UserID, params UpdateParams) (*models.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Password != nil {
		if len(*params.Password) < 8 {
			return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), s.bcryptCost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		u.PasswordHash = string(hash)
	}
	u.UpdatedAt = requestcontext.Now(ctx)

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.logAudit(ctx, audit.EventUserUpdated, "user_id", u.ID.String())
	return u, nil
}

// Delete removes the account.
func (s *Service) Delete(ctx context.Context, userID id.UserID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}
	s.logAudit(ctx, audit.EventUserDeleted, "user_id", userID.String())
	return nil
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, page, limit int) (*models.UserPage, error) {
	if page < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "page must be at least 1")
	}
	if limit < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be at least 1")
	}

	items, total, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return models.NewUserPage(items, total, page, limit), nil
}

// Exists reports whether the user ID resolves to an account. The project
// service uses it to validate share and transfer targets.
func (s *Service) Exists(ctx context.Context, userID id.UserID) (bool, error) {
	_, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
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
		Action:    event,
	})
}
