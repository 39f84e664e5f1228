package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"atelier/internal/user/models"
	"atelier/internal/user/service"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Service defines the interface for user account operations.
type Service interface {
	Create(ctx context.Context, params service.CreateParams) (*models.User, error)
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	Update(ctx context.Context, userID id.UserID, params service.UpdateParams) (*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
	List(ctx context.Context, page, limit int) (*models.UserPage, error)
}

// Handler wires user endpoints to the user service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a user handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the endpoints restricted to elevated roles. The
// router group is expected to enforce the role guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/users", h.HandleCreate)
	r.Delete("/users/{userID}", h.HandleDelete)
}

// RegisterListing mounts the listing endpoint (admin and manager).
func (h *Handler) RegisterListing(r chi.Router) {
	r.Get("/users", h.HandleList)
}

// Register mounts the endpoints available to every authenticated user.
// Reads and updates of another user's account still require the admin role,
// checked per request.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users/me", h.HandleMe)
	r.Get("/users/{userID}", h.HandleGet)
	r.Patch("/users/{userID}", h.HandleUpdate)
}

func userIDParam(r *http.Request) (id.UserID, error) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "invalid user id")
	}
	return userID, nil
}

// selfOrAdmin rejects access to another user's account unless the caller is
// an admin.
func selfOrAdmin(ctx context.Context, target id.UserID) error {
	if requestcontext.UserID(ctx) == target {
		return nil
	}
	if requestcontext.Role(ctx).IsAdmin() {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "cannot access another user's account")
}

// HandleCreate handles POST /users requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	u, err := h.service.Create(ctx, service.CreateParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.ParsedRole(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "user creation failed",
			"request_id", requestID,
			"email", req.Email,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user created",
		"request_id", requestID,
		"user_id", u.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromUser(u))
}

// HandleMe handles GET /users/me requests.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.service.Get(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}

// HandleGet handles GET /users/{userID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := userIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := selfOrAdmin(ctx, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.service.Get(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}

// HandleUpdate handles PATCH /users/{userID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := userIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := selfOrAdmin(ctx, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	u, err := h.service.Update(ctx, userID, service.UpdateParams{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user updated",
		"request_id", requestID,
		"user_id", userID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}

// HandleDelete handles DELETE /users/{userID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := userIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user deleted",
		"request_id", requestID,
		"user_id", userID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /users requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, limit := 1, 10
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "page must be an integer"))
			return
		}
		page = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer"))
			return
		}
		limit = n
	}

	result, err := h.service.List(ctx, page, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUserPage(result))
}
