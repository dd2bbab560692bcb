package rbac

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/shared"
)

// Handler exposes the permission administration endpoints.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	admin     *Admin
	guard     Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store *Store, admin *Admin, guard Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, admin: admin, guard: guard, validator: validator.New()}
}

// MountRoutes registers permission admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireModuleAction(ModuleSettings, ActionView))
		r.Get("/", h.listRoles)
		r.Get("/{role}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireSuperAdmin())
		r.Put("/{role}", h.updateRole)
		r.Post("/{role}/modules/{module}", h.enableModule)
		r.Delete("/{role}/modules/{module}", h.disableModule)
		r.Post("/copy", h.copyRole)
		r.Get("/export", h.exportSnapshot)
		r.Post("/import", h.importSnapshot)
		r.Post("/reset", h.reset)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.store.All())
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role := identity.Role(chi.URLParam(r, "role"))
	record, ok := h.store.RolePermissionsFor(role)
	if !ok {
		shared.WriteError(w, http.StatusNotFound, "unknown role")
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

type updateRoleRequest struct {
	Modules  map[string]ModuleConfig `json:"modules" validate:"required"`
	Pages    []string                `json:"pages"`
	Features []string                `json:"features"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	role := identity.Role(chi.URLParam(r, "role"))
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "modules map is required")
		return
	}
	config := RolePermissions{Role: role, Modules: req.Modules, Pages: req.Pages, Features: req.Features}
	if err := h.store.UpdateRolePermissions(r.Context(), identity.ActorFromContext(r.Context()), role, config); err != nil {
		h.writeStoreError(w, err)
		return
	}
	record, _ := h.store.RolePermissionsFor(role)
	shared.WriteJSON(w, http.StatusOK, record)
}

type enableModuleRequest struct {
	Actions []string `json:"actions"`
}

func (h *Handler) enableModule(w http.ResponseWriter, r *http.Request) {
	role := identity.Role(chi.URLParam(r, "role"))
	module := chi.URLParam(r, "module")
	var req enableModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.EnableModuleForRole(r.Context(), identity.ActorFromContext(r.Context()), role, module, req.Actions); err != nil {
		h.writeStoreError(w, err)
		return
	}
	record, _ := h.store.RolePermissionsFor(role)
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) disableModule(w http.ResponseWriter, r *http.Request) {
	role := identity.Role(chi.URLParam(r, "role"))
	module := chi.URLParam(r, "module")
	if err := h.store.DisableModuleForRole(r.Context(), identity.ActorFromContext(r.Context()), role, module); err != nil {
		h.writeStoreError(w, err)
		return
	}
	record, _ := h.store.RolePermissionsFor(role)
	shared.WriteJSON(w, http.StatusOK, record)
}

type copyRoleRequest struct {
	From identity.Role `json:"from" validate:"required"`
	To   identity.Role `json:"to" validate:"required"`
}

func (h *Handler) copyRole(w http.ResponseWriter, r *http.Request) {
	var req copyRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "from and to roles are required")
		return
	}
	if err := h.store.CopyPermissionsFromRole(r.Context(), identity.ActorFromContext(r.Context()), req.From, req.To); err != nil {
		h.writeStoreError(w, err)
		return
	}
	record, _ := h.store.RolePermissionsFor(req.To)
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) exportSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.admin.Export(r.Context(), identity.ActorFromContext(r.Context()))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) importSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.admin.Import(r.Context(), identity.ActorFromContext(r.Context()), data); err != nil {
		if errors.Is(err, shared.ErrImportFormat) {
			shared.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeStoreError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, h.store.All())
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Reset(r.Context(), identity.ActorFromContext(r.Context())); err != nil {
		h.writeStoreError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, h.store.All())
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		shared.WriteError(w, http.StatusForbidden, "super admin required")
	case errors.Is(err, shared.ErrNotFound):
		shared.WriteError(w, http.StatusNotFound, "unknown role")
	default:
		h.logger.Error("permission mutation", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
