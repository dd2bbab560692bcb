package rbac

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

// overridesKey is the store key holding runtime overrides of the role table.
const overridesKey = "rbac:overrides"

// Store holds the role permission table. Mutations are restricted to
// super_admin actors and always replace whole records so readers never see a
// half-updated modules/permissions pair.
type Store struct {
	mu     sync.RWMutex
	roles  map[identity.Role]RolePermissions
	index  map[identity.Role]map[string]struct{}
	kv     shared.Store
	logger *slog.Logger
}

// NewStore constructs a Store initialized from the static defaults.
func NewStore(kv shared.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, logger: logger}
	s.replaceAll(DefaultTable())
	return s
}

// Restore applies persisted runtime overrides, if any. Corrupt persisted
// state is surfaced to the caller; the in-memory defaults stay intact.
func (s *Store) Restore(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, overridesKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	var records []RolePermissions
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return fmt.Errorf("rbac: corrupt permission overrides: %w", err)
	}
	table := make(map[identity.Role]RolePermissions, len(records))
	for _, record := range records {
		if !record.Role.Valid() {
			return fmt.Errorf("rbac: corrupt permission overrides: unknown role %q", record.Role)
		}
		record.rebuild()
		table[record.Role] = record
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceAllLocked(table)
	return nil
}

// RolePermissionsFor returns a deep copy of the record for a role.
func (s *Store) RolePermissionsFor(role identity.Role) (RolePermissions, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.roles[role]
	if !ok {
		return RolePermissions{}, false
	}
	return record.Clone(), true
}

// All returns deep copies of every record, ordered by ascending privilege.
func (s *Store) All() []RolePermissions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RolePermissions, 0, len(s.roles))
	for _, record := range s.roles {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role.Rank() < out[j].Role.Rank() })
	return out
}

// UpdateRolePermissions wholesale-replaces the record for a role. The derived
// permission list is rebuilt before the record becomes visible.
func (s *Store) UpdateRolePermissions(ctx context.Context, actor *identity.Identity, role identity.Role, config RolePermissions) error {
	if err := s.authorize(actor, "update role permissions"); err != nil {
		return err
	}
	if !role.Valid() {
		return shared.ErrNotFound
	}
	record := config.Clone()
	record.Role = role
	record.rebuild()

	s.mu.Lock()
	s.roles[role] = record
	s.index[role] = record.permissionSet()
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// EnableModuleForRole turns a module on for a role with the given actions.
func (s *Store) EnableModuleForRole(ctx context.Context, actor *identity.Identity, role identity.Role, module string, actions []string) error {
	if err := s.authorize(actor, "enable module"); err != nil {
		return err
	}
	return s.mutateRole(ctx, role, func(record *RolePermissions) {
		record.Modules[module] = ModuleConfig{Enabled: true, Actions: actions}
	})
}

// DisableModuleForRole turns a module off for a role, stripping its actions
// and every derived "module:action" permission.
func (s *Store) DisableModuleForRole(ctx context.Context, actor *identity.Identity, role identity.Role, module string) error {
	if err := s.authorize(actor, "disable module"); err != nil {
		return err
	}
	return s.mutateRole(ctx, role, func(record *RolePermissions) {
		record.Modules[module] = ModuleConfig{Enabled: false, Actions: []string{}}
	})
}

// CopyPermissionsFromRole deep-copies the whole record from one role to
// another, retagging the role field.
func (s *Store) CopyPermissionsFromRole(ctx context.Context, actor *identity.Identity, from, to identity.Role) error {
	if err := s.authorize(actor, "copy role permissions"); err != nil {
		return err
	}
	s.mu.Lock()
	source, ok := s.roles[from]
	if !ok || !to.Valid() {
		s.mu.Unlock()
		return shared.ErrNotFound
	}
	record := source.Clone()
	record.Role = to
	s.roles[to] = record
	s.index[to] = record.permissionSet()
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// mutateRole clones a record, applies fn, rebuilds the derived permissions
// and swaps the record in as one replacement.
func (s *Store) mutateRole(ctx context.Context, role identity.Role, fn func(*RolePermissions)) error {
	s.mu.Lock()
	current, ok := s.roles[role]
	if !ok {
		s.mu.Unlock()
		return shared.ErrNotFound
	}
	record := current.Clone()
	fn(&record)
	record.rebuild()
	s.roles[role] = record
	s.index[role] = record.permissionSet()
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// replaceAll swaps the entire table. Used at construction, restore, import
// and reset.
func (s *Store) replaceAll(table map[identity.Role]RolePermissions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceAllLocked(table)
}

func (s *Store) replaceAllLocked(table map[identity.Role]RolePermissions) {
	roles := make(map[identity.Role]RolePermissions, len(table))
	index := make(map[identity.Role]map[string]struct{}, len(table))
	for role, record := range table {
		clone := record.Clone()
		clone.rebuild()
		roles[role] = clone
		index[role] = clone.permissionSet()
	}
	s.roles = roles
	s.index = index
}

// authorize gates privileged mutations: only super_admin actors pass, every
// other caller gets a logged warning and ErrUnauthorized.
func (s *Store) authorize(actor *identity.Identity, op string) error {
	if actor != nil && actor.Role == identity.RoleSuperAdmin {
		return nil
	}
	actorID := "anonymous"
	if actor != nil {
		actorID = actor.ID
	}
	s.logger.Warn("permission mutation denied",
		slog.String("op", op),
		slog.String("actor", actorID))
	return shared.ErrUnauthorized
}

// persist writes the current table to the session store. Failures are logged
// and not surfaced; the in-memory table remains authoritative.
func (s *Store) persist(ctx context.Context) {
	s.mu.RLock()
	records := make([]RolePermissions, 0, len(s.roles))
	for _, record := range s.roles {
		records = append(records, record)
	}
	s.mu.RUnlock()
	sort.Slice(records, func(i, j int) bool { return records[i].Role.Rank() < records[j].Role.Rank() })

	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Error("marshal permission table", slog.Any("error", err))
		return
	}
	if err := s.kv.Set(ctx, overridesKey, string(data)); err != nil {
		s.logger.Warn("persist permission table", slog.Any("error", err))
	}
}
