package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/shared"
)

// AllowedFunc builds a permission predicate for a role. Wired from the
// permission resolver so this package stays independent of it.
type AllowedFunc func(role identity.Role) func(permission string) bool

// Handler serves the per-role widget list and widget administration.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	allowed  AllowedFunc
	group    singleflight.Group
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, allowed AllowedFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, registry: registry, allowed: allowed}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/widgets", h.handleWidgets)
}

// MountAdminRoutes registers the widget administration routes. The caller
// wraps them in the admin guard.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Put("/{id}", h.handleUpdate)
}

func (h *Handler) handleWidgets(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		shared.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	// Widget assembly walks the whole catalog; concurrent requests for the
	// same role share one computation.
	widgets, _, _ := h.group.Do(string(actor.Role), func() (any, error) {
		return h.registry.WidgetsForRole(actor.Role, h.allowed(actor.Role)), nil
	})
	shared.WriteJSON(w, http.StatusOK, widgets)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var widget Widget
	if err := json.NewDecoder(r.Body).Decode(&widget); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	widget.ID = id
	if err := h.registry.Update(r.Context(), identity.ActorFromContext(r.Context()), widget); err != nil {
		switch {
		case errors.Is(err, shared.ErrUnauthorized):
			shared.WriteError(w, http.StatusForbidden, "super admin required")
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteError(w, http.StatusNotFound, "unknown widget")
		default:
			h.logger.Error("update widget", slog.Any("error", err))
			shared.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	shared.WriteJSON(w, http.StatusOK, widget)
}
