package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"atelier/internal/project/access"
	"atelier/internal/project/models"
	"atelier/internal/project/service"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Service defines the interface for project operations.
type Service interface {
	Create(ctx context.Context, principal access.Principal, params service.CreateParams) (*models.Project, error)
	Get(ctx context.Context, principal access.Principal, projectID id.ProjectID) (*models.Project, error)
	Update(ctx context.Context, principal access.Principal, projectID id.ProjectID, params service.UpdateParams) (*models.Project, error)
	List(ctx context.Context, principal access.Principal, page, limit int, search string) (*models.ProjectPage, error)
	ListAll(ctx context.Context, principal access.Principal, page, limit int, search string) (*models.ProjectPage, error)
	FindByTag(ctx context.Context, principal access.Principal, tag string) ([]*models.Project, error)
	Share(ctx context.Context, principal access.Principal, projectID id.ProjectID, userID id.UserID, permissions []models.Permission) (*models.Project, error)
	TransferOwner(ctx context.Context, principal access.Principal, projectID id.ProjectID, newOwnerID id.UserID) (*models.Project, error)
	Delete(ctx context.Context, principal access.Principal, projectID id.ProjectID) error
}

// Handler wires project endpoints to the project service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a project handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts project endpoints on the router. The router group is
// expected to already enforce authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/projects", h.HandleCreate)
	r.Get("/projects", h.HandleList)
	r.Get("/projects/all", h.HandleListAll)
	r.Get("/projects/tags/{tag}", h.HandleFindByTag)
	r.Get("/projects/{projectID}", h.HandleGet)
	r.Patch("/projects/{projectID}", h.HandleUpdate)
	r.Delete("/projects/{projectID}", h.HandleDelete)
	r.Post("/projects/{projectID}/share", h.HandleShare)
	r.Post("/projects/{projectID}/transfer-owner", h.HandleTransferOwner)
}

// principal builds the caller identity from the request context. The bool is
// false when the request is unauthenticated.
func principal(ctx context.Context) (access.Principal, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		return access.Principal{}, false
	}
	return access.Principal{ID: userID, Role: requestcontext.Role(ctx)}, true
}

func projectIDParam(r *http.Request) (id.ProjectID, error) {
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		return id.ProjectID{}, dErrors.New(dErrors.CodeValidation, "invalid project id")
	}
	return projectID, nil
}

// pageParams parses page and limit query parameters with the listing
// defaults. Non-numeric values are rejected rather than silently defaulted.
func pageParams(r *http.Request) (int, int, error) {
	page, limit := 1, 10

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "page must be an integer")
		}
		page = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer")
		}
		limit = n
	}
	return page, limit, nil
}

// HandleCreate handles POST /projects requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.service.Create(ctx, caller, service.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "project creation failed",
			"request_id", requestID,
			"user_id", caller.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "project created",
		"request_id", requestID,
		"user_id", caller.ID,
		"project_id", project.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromProject(project))
}

// HandleGet handles GET /projects/{projectID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	project, err := h.service.Get(ctx, caller, projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleUpdate handles PATCH /projects/{projectID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.service.Update(ctx, caller, projectID, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "project update failed",
			"request_id", requestID,
			"user_id", caller.ID,
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "project updated",
		"request_id", requestID,
		"user_id", caller.ID,
		"project_id", projectID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleDelete handles DELETE /projects/{projectID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, caller, projectID); err != nil {
		h.logger.ErrorContext(ctx, "project deletion failed",
			"request_id", requestID,
			"user_id", caller.ID,
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "project deleted",
		"request_id", requestID,
		"user_id", caller.ID,
		"project_id", projectID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /projects requests: the caller's owned and shared
// projects, optionally narrowed by name search.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	page, limit, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.List(ctx, caller, page, limit, r.URL.Query().Get("search"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPage(result))
}

// HandleListAll handles GET /projects/all requests, the admin-only listing
// across every project.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	page, limit, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ListAll(ctx, caller, page, limit, r.URL.Query().Get("search"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPage(result))
}

// HandleFindByTag handles GET /projects/tags/{tag} requests.
func (h *Handler) HandleFindByTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	projects, err := h.service.FindByTag(ctx, caller, chi.URLParam(r, "tag"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]*ProjectResponse, len(projects))
	for i, p := range projects {
		out[i] = FromProject(p)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleShare handles POST /projects/{projectID}/share requests.
func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ShareProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.service.Share(ctx, caller, projectID, req.ParsedUserID(), req.ParsedPermissions())
	if err != nil {
		h.logger.ErrorContext(ctx, "project share failed",
			"request_id", requestID,
			"user_id", caller.ID,
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "project shared",
		"request_id", requestID,
		"user_id", caller.ID,
		"project_id", projectID,
		"target_user_id", req.UserID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}

// HandleTransferOwner handles POST /projects/{projectID}/transfer-owner requests.
func (h *Handler) HandleTransferOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[TransferOwnerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.service.TransferOwner(ctx, caller, projectID, req.ParsedNewOwnerID())
	if err != nil {
		h.logger.ErrorContext(ctx, "ownership transfer failed",
			"request_id", requestID,
			"user_id", caller.ID,
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ownership transferred",
		"request_id", requestID,
		"user_id", caller.ID,
		"project_id", projectID,
		"new_owner_id", req.NewOwnerID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromProject(project))
}
