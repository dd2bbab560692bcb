package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/shared"
)

// overridesKey is the store key holding runtime overrides of the catalog.
const overridesKey = "dashboard:widgets"

// RoleOverride replaces the permission check for one role on one widget.
type RoleOverride struct {
	Enabled bool   `json:"enabled"`
	Variant string `json:"variant,omitempty"`
}

// Widget is a permission-gated dashboard block.
type Widget struct {
	ID                 string                         `json:"id"`
	RequiredPermission string                         `json:"requiredPermission"`
	Enabled            bool                           `json:"enabled"`
	Order              int                            `json:"order"`
	RoleOverrides      map[identity.Role]RoleOverride `json:"roleOverrides,omitempty"`
}

// Clone deep-copies the widget.
func (w Widget) Clone() Widget {
	out := w
	if w.RoleOverrides != nil {
		out.RoleOverrides = make(map[identity.Role]RoleOverride, len(w.RoleOverrides))
		for role, override := range w.RoleOverrides {
			out.RoleOverrides[role] = override
		}
	}
	return out
}

// Registry is the mutable widget catalog. Mutations are super_admin only and
// replace whole widget values.
type Registry struct {
	mu      sync.RWMutex
	widgets map[string]Widget
	kv      shared.Store
	logger  *slog.Logger
}

// NewRegistry constructs a Registry seeded from the default catalog.
func NewRegistry(kv shared.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{kv: kv, logger: logger}
	r.replaceAll(DefaultCatalog())
	return r
}

// Restore applies persisted catalog overrides, if any.
func (r *Registry) Restore(ctx context.Context) error {
	raw, err := r.kv.Get(ctx, overridesKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	var widgets []Widget
	if err := json.Unmarshal([]byte(raw), &widgets); err != nil {
		return fmt.Errorf("dashboard: corrupt widget overrides: %w", err)
	}
	r.replaceAll(widgets)
	return nil
}

// WidgetsForRole returns the widgets visible to a role, ordered by ascending
// display priority. A widget is visible when it is globally enabled and
// either a role override enables it, or — with no override — the allowed
// predicate grants its required permission.
func (r *Registry) WidgetsForRole(role identity.Role, allowed func(permission string) bool) []Widget {
	r.mu.RLock()
	out := make([]Widget, 0, len(r.widgets))
	for _, widget := range r.widgets {
		if !widget.Enabled {
			continue
		}
		if override, ok := widget.RoleOverrides[role]; ok {
			if !override.Enabled {
				continue
			}
		} else if allowed == nil || !allowed(widget.RequiredPermission) {
			continue
		}
		out = append(out, widget.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// All returns every widget, ordered by display priority.
func (r *Registry) All() []Widget {
	r.mu.RLock()
	out := make([]Widget, 0, len(r.widgets))
	for _, widget := range r.widgets {
		out = append(out, widget.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Update replaces the widget with a matching ID. Super admin only; unknown
// IDs report shared.ErrNotFound.
func (r *Registry) Update(ctx context.Context, actor *identity.Identity, widget Widget) error {
	if actor == nil || actor.Role != identity.RoleSuperAdmin {
		actorID := "anonymous"
		if actor != nil {
			actorID = actor.ID
		}
		r.logger.Warn("widget mutation denied",
			slog.String("widget", widget.ID),
			slog.String("actor", actorID))
		return shared.ErrUnauthorized
	}

	r.mu.Lock()
	if _, ok := r.widgets[widget.ID]; !ok {
		r.mu.Unlock()
		return shared.ErrNotFound
	}
	r.widgets[widget.ID] = widget.Clone()
	r.mu.Unlock()

	r.persist(ctx)
	return nil
}

// ReplaceAll swaps the whole catalog and persists it. Used by snapshot
// import.
func (r *Registry) ReplaceAll(ctx context.Context, widgets []Widget) {
	r.replaceAll(widgets)
	r.persist(ctx)
}

// ResetToDefault restores the seeded catalog and clears the persisted
// override record.
func (r *Registry) ResetToDefault(ctx context.Context) {
	r.replaceAll(DefaultCatalog())
	if err := r.kv.Remove(ctx, overridesKey); err != nil {
		r.logger.Warn("clear widget overrides", slog.Any("error", err))
	}
}

func (r *Registry) replaceAll(widgets []Widget) {
	byID := make(map[string]Widget, len(widgets))
	for _, widget := range widgets {
		byID[widget.ID] = widget.Clone()
	}
	r.mu.Lock()
	r.widgets = byID
	r.mu.Unlock()
}

func (r *Registry) persist(ctx context.Context) {
	data, err := json.Marshal(r.All())
	if err != nil {
		r.logger.Error("marshal widget catalog", slog.Any("error", err))
		return
	}
	if err := r.kv.Set(ctx, overridesKey, string(data)); err != nil {
		r.logger.Warn("persist widget catalog", slog.Any("error", err))
	}
}
