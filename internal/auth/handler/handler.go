package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"atelier/internal/auth/service"
	usermodels "atelier/internal/user/models"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Service defines the interface for authentication operations.
type Service interface {
	Signup(ctx context.Context, params service.SignupParams) (*usermodels.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Profile(ctx context.Context) (*usermodels.User, error)
}

// Handler wires auth endpoints to the auth service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an auth handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/signup", h.HandleSignup)
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the endpoints that require a valid token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/profile", h.HandleProfile)
}

// HandleSignup handles POST /auth/signup requests.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SignupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	u, err := h.service.Signup(ctx, service.SignupParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "signup failed",
			"request_id", requestID,
			"email", req.Email,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user signed up",
		"request_id", requestID,
		"user_id", u.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromUser(u))
}

// HandleLogin handles POST /auth/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
			"email", req.Email,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestID,
		"user_id", result.User.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromLoginResult(result))
}

// HandleLogout handles POST /auth/logout requests. The token being revoked
// is the one presented in the Authorization header.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawToken, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || rawToken == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
		return
	}

	if err := h.service.Logout(ctx, rawToken); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "logout succeeded",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", requestcontext.UserID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleProfile handles GET /auth/profile requests.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Profile(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}
