// Package role guards route groups by account role.
package role

import (
	"log/slog"
	"net/http"

	id "atelier/pkg/domain"
	"atelier/pkg/requestcontext"
)

// Require rejects requests whose authenticated role is not in the allowed
// set. Must be mounted after the auth middleware; an absent role is treated
// as unauthenticated, never as a pass.
func Require(logger *slog.Logger, allowed ...id.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[id.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.Role(ctx)
			if _, ok := allowedSet[role]; !ok {
				logger.WarnContext(ctx, "role not permitted",
					"request_id", requestcontext.RequestID(ctx),
					"role", role.String(),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"insufficient role"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
