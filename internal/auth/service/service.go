// Package service orchestrates signup, login, and logout. Tokens are HS256
// JWTs; logout puts the token's JTI on a revocation list that the auth
// middleware checks on every request.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"atelier/internal/audit"
	"atelier/internal/auth/device"
	"atelier/internal/auth/store/revocation"
	"atelier/internal/jwttoken"
	"atelier/internal/platform/metrics"
	usermodels "atelier/internal/user/models"
	userservice "atelier/internal/user/service"
	"atelier/pkg/attrs"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/requestcontext"
)

// UserOperations is the slice of the user service that auth needs.
type UserOperations interface {
	Create(ctx context.Context, params userservice.CreateParams) (*usermodels.User, error)
	Authenticate(ctx context.Context, email, password string) (*usermodels.User, error)
	Get(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

// TokenService issues and validates access tokens.
type TokenService interface {
	GenerateAccessToken(userID id.UserID, role id.Role, sessionID string, expiresIn time.Duration) (string, error)
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// AuditPublisher records domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates authentication flows.
type Service struct {
	users          UserOperations
	tokens         TokenService
	trl            revocation.TokenRevocationList
	devices        *device.Service
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tokenTTL       time.Duration
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

// WithTokenTTL overrides the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// New constructs an auth Service. trl may be nil when revocation is not
// wired; logout then only audits.
func New(users UserOperations, tokens TokenService, trl revocation.TokenRevocationList, devices *device.Service, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		trl:      trl,
		devices:  devices,
		tokenTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignupParams carries the self-registration fields.
type SignupParams struct {
	Email    string
	Name     string
	Password string
}

// Signup registers a new account. Self-registration always yields the user
// role; elevated roles are granted through the admin user endpoints.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*usermodels.User, error) {
	u, err := s.users.Create(ctx, userservice.CreateParams{
		Email:    params.Email,
		Name:     params.Name,
		Password: params.Password,
		Role:     id.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// LoginResult is a successful authentication outcome.
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *usermodels.User
}

// Login verifies credentials and issues an access token bound to a fresh
// session ID. The client device name and IP go to the audit trail.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.metrics.LoginFailed.Inc()
		}
		return nil, err
	}

	sessionID := uuid.NewString()
	token, err := s.tokens.GenerateAccessToken(u.ID, u.Role, sessionID, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	deviceName := device.ParseUserAgent(requestcontext.UserAgent(ctx))
	s.logAudit(ctx, audit.EventUserLogin,
		"user_id", u.ID.String(),
		"session_id", sessionID,
		"device", deviceName,
		"client_ip", requestcontext.ClientIP(ctx))
	if s.metrics != nil {
		s.metrics.Logins.Inc()
	}
	return &LoginResult{AccessToken: token, ExpiresIn: s.tokenTTL, User: u}, nil
}

// Logout revokes the presented token. The revocation TTL is the token's
// remaining lifetime, so the list never grows past one token lifetime.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.ValidateToken(rawToken)
	if err != nil {
		return err
	}

	if s.trl != nil && claims.ExpiresAt != nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if remaining > 0 {
			if err := s.trl.RevokeToken(ctx, claims.ID, remaining); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
			}
		}
	}

	s.logAudit(ctx, audit.EventUserLogout,
		"user_id", claims.UserID,
		"session_id", claims.SessionID)
	if s.metrics != nil {
		s.metrics.Logouts.Inc()
	}
	return nil
}

// Profile returns the authenticated user's account.
func (s *Service) Profile(ctx context.Context) (*usermodels.User, error) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.users.Get(ctx, userID)
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
		Subject:   attrs.ExtractString(attributes, "session_id"),
		Action:    event,
	})
}
