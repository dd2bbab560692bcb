package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/solterra-club/backoffice/internal/dashboard"
	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/shared"
)

// Snapshot is the serialized dump of the role table and widget catalog.
type Snapshot struct {
	ExportedAt time.Time          `json:"exportedAt"`
	ExportedBy string             `json:"exportedBy"`
	Roles      []RolePermissions  `json:"roles"`
	Widgets    []dashboard.Widget `json:"widgets"`
}

// Admin bundles the snapshot-level operations that span the permission table
// and the widget registry.
type Admin struct {
	perms   *Store
	widgets *dashboard.Registry
	kv      shared.Store
	logger  *slog.Logger
}

// NewAdmin constructs an Admin service.
func NewAdmin(perms *Store, widgets *dashboard.Registry, kv shared.Store, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{perms: perms, widgets: widgets, kv: kv, logger: logger}
}

// Export dumps the full configuration with export metadata. Super admin only.
func (a *Admin) Export(ctx context.Context, actor *identity.Identity) (*Snapshot, error) {
	if err := a.perms.authorize(actor, "export permissions"); err != nil {
		return nil, err
	}
	return &Snapshot{
		ExportedAt: time.Now().UTC(),
		ExportedBy: actor.ID,
		Roles:      a.perms.All(),
		Widgets:    a.widgets.All(),
	}, nil
}

// Import parses a snapshot and wholesale-replaces the role table and widget
// catalog. Malformed input fails with shared.ErrImportFormat and applies
// nothing: the snapshot is fully validated before either component changes.
func (a *Admin) Import(ctx context.Context, actor *identity.Identity, data []byte) error {
	if err := a.perms.authorize(actor, "import permissions"); err != nil {
		return err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrImportFormat, err)
	}
	if len(snapshot.Roles) == 0 {
		return fmt.Errorf("%w: no roles in snapshot", shared.ErrImportFormat)
	}
	table := make(map[identity.Role]RolePermissions, len(snapshot.Roles))
	for _, record := range snapshot.Roles {
		if !record.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q", shared.ErrImportFormat, record.Role)
		}
		if _, dup := table[record.Role]; dup {
			return fmt.Errorf("%w: duplicate role %q", shared.ErrImportFormat, record.Role)
		}
		if record.Modules == nil {
			return fmt.Errorf("%w: role %q has no modules map", shared.ErrImportFormat, record.Role)
		}
		table[record.Role] = record
	}
	seen := make(map[string]struct{}, len(snapshot.Widgets))
	for _, widget := range snapshot.Widgets {
		if widget.ID == "" {
			return fmt.Errorf("%w: widget with empty id", shared.ErrImportFormat)
		}
		if _, dup := seen[widget.ID]; dup {
			return fmt.Errorf("%w: duplicate widget %q", shared.ErrImportFormat, widget.ID)
		}
		seen[widget.ID] = struct{}{}
	}

	a.perms.replaceAll(table)
	a.perms.persist(ctx)
	a.widgets.ReplaceAll(ctx, snapshot.Widgets)
	a.logger.Info("permission snapshot imported",
		slog.String("actor", actor.ID),
		slog.Int("roles", len(table)),
		slog.Int("widgets", len(snapshot.Widgets)))
	return nil
}

// Reset restores the static defaults for both components and clears the
// persisted overrides.
func (a *Admin) Reset(ctx context.Context, actor *identity.Identity) error {
	if err := a.perms.authorize(actor, "reset permissions"); err != nil {
		return err
	}
	a.perms.replaceAll(DefaultTable())
	if err := a.kv.Remove(ctx, overridesKey); err != nil {
		a.logger.Warn("clear permission overrides", slog.Any("error", err))
	}
	a.widgets.ResetToDefault(ctx)
	a.logger.Info("permission configuration reset", slog.String("actor", actor.ID))
	return nil
}
