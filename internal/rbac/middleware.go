package rbac

import (
	"log/slog"
	"net/http"

	"github.com/solterra-club/backoffice/internal/identity"
)

// Middleware wires authorization guards for HTTP handlers.
type Middleware struct {
	Store  *Store
	Logger *slog.Logger
}

// RequireModuleAction rejects requests whose actor lacks the module action.
func (m Middleware) RequireModuleAction(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := identity.ActorFromContext(r.Context())
			if actor == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !m.Store.HasModuleAction(actor, module, action) {
				if m.Logger != nil {
					m.Logger.Warn("module action denied",
						slog.String("actor", actor.ID),
						slog.String("module", module),
						slog.String("action", action))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin rejects requests from any actor below super_admin.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := identity.ActorFromContext(r.Context())
			if actor == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if actor.Role != identity.RoleSuperAdmin {
				if m.Logger != nil {
					m.Logger.Warn("admin route denied",
						slog.String("actor", actor.ID),
						slog.String("role", string(actor.Role)),
						slog.String("path", r.URL.Path))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
