package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"atelier/internal/user/service"
	"atelier/internal/user/store"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/middleware/role"
	"atelier/pkg/requestcontext"
)

// newUserRouter builds a router backed by the in-memory store, with the same
// role guards as production. Requests authenticate by setting X-Test-User and
// X-Test-Role headers, standing in for the JWT middleware.
func newUserRouter(t *testing.T) chi.Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(),
		service.WithLogger(logger),
		service.WithBcryptCost(bcrypt.MinCost),
	)
	h := New(svc, logger)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get("X-Test-User"); raw != "" {
				userID, err := id.ParseUserID(raw)
				if err != nil {
					t.Fatalf("bad test user header: %v", err)
				}
				userRole := id.Role(r.Header.Get("X-Test-Role"))
				ctx := requestcontext.WithPrincipal(r.Context(), userID, userRole)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	})
	h.Register(router)
	router.Group(func(admin chi.Router) {
		admin.Use(role.Require(logger, id.RoleAdmin))
		h.RegisterAdmin(admin)
	})
	router.Group(func(listing chi.Router) {
		listing.Use(role.Require(logger, id.RoleAdmin, id.RoleManager))
		h.RegisterListing(listing)
	})
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any, userID id.UserID, userRole id.Role) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != (id.UserID{}) {
		req.Header.Set("X-Test-User", userID.String())
		req.Header.Set("X-Test-Role", string(userRole))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) UserResponse {
	t.Helper()
	var resp UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode user response: %v", err)
	}
	return resp
}

func createUser(t *testing.T, router chi.Router, admin id.UserID, email, name string) UserResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/users",
		map[string]any{"email": email, "name": name, "password": "correct-horse"},
		admin, id.RoleAdmin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating user, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeUser(t, rec)
}

func TestCreateRequiresAdminRole(t *testing.T) {
	router := newUserRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users",
		map[string]any{"email": "a@b.com", "password": "correct-horse"},
		id.NewUserID(), id.RoleUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin create, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/users",
		map[string]any{"email": "a@b.com", "password": "correct-horse"},
		id.NewUserID(), id.RoleManager)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manager create, got %d", rec.Code)
	}
}

func TestCreateAndGetOwnAccount(t *testing.T) {
	router := newUserRouter(t)
	admin := id.NewUserID()

	created := createUser(t, router, admin, "Alice@Example.com", "Alice")
	if created.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}
	if created.Role != "user" {
		t.Fatalf("expected default role user, got %s", created.Role)
	}

	userID, err := id.ParseUserID(created.ID)
	if err != nil {
		t.Fatalf("bad user id in response: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/users/me", nil, userID, id.RoleUser)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for own profile, got %d", rec.Code)
	}
	if got := decodeUser(t, rec); got.ID != created.ID {
		t.Fatalf("expected own account, got %s", got.ID)
	}
}

func TestGetOtherAccountForbidden(t *testing.T) {
	router := newUserRouter(t)
	admin := id.NewUserID()

	created := createUser(t, router, admin, "target@example.com", "Target")

	rec := doJSON(t, router, http.MethodGet, "/users/"+created.ID, nil, id.NewUserID(), id.RoleUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 reading another account, got %d", rec.Code)
	}

	// Admins read anyone.
	rec = doJSON(t, router, http.MethodGet, "/users/"+created.ID, nil, admin, id.RoleAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin read, got %d", rec.Code)
	}
}

func TestUpdateOwnName(t *testing.T) {
	router := newUserRouter(t)
	admin := id.NewUserID()

	created := createUser(t, router, admin, "rename@example.com", "Before")
	userID, err := id.ParseUserID(created.ID)
	if err != nil {
		t.Fatalf("bad user id in response: %v", err)
	}

	rec := doJSON(t, router, http.MethodPatch, "/users/"+created.ID,
		map[string]any{"name": "After"}, userID, id.RoleUser)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating own name, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeUser(t, rec); got.Name != "After" {
		t.Fatalf("expected updated name, got %s", got.Name)
	}

	rec = doJSON(t, router, http.MethodPatch, "/users/"+created.ID,
		map[string]any{"name": "Hijacked"}, id.NewUserID(), id.RoleUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 updating another account, got %d", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	router := newUserRouter(t)
	admin := id.NewUserID()

	created := createUser(t, router, admin, "gone@example.com", "Gone")

	rec := doJSON(t, router, http.MethodDelete, "/users/"+created.ID, nil, id.NewUserID(), id.RoleUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin delete, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/users/"+created.ID, nil, admin, id.RoleAdmin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting user, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/users/"+created.ID, nil, admin, id.RoleAdmin)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting missing user, got %d", rec.Code)
	}
}

func TestListRoles(t *testing.T) {
	router := newUserRouter(t)
	admin := id.NewUserID()

	createUser(t, router, admin, "one@example.com", "One")
	createUser(t, router, admin, "two@example.com", "Two")

	rec := doJSON(t, router, http.MethodGet, "/users", nil, id.NewUserID(), id.RoleUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 listing as user, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/users?page=1&limit=1", nil, id.NewUserID(), id.RoleManager)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing as manager, got %d", rec.Code)
	}
	var page UserPageResponse
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if page.Total != 2 || page.Pages != 2 || len(page.Data) != 1 {
		t.Fatalf("expected total 2, pages 2, one row; got total=%d pages=%d rows=%d",
			page.Total, page.Pages, len(page.Data))
	}
}
