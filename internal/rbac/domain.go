package rbac

import (
	"sort"
	"strings"

	"github.com/solterra-club/backoffice/internal/identity"
)

// Wildcard in a pages or features list grants every value.
const Wildcard = "*"

// PermissionString builds the canonical "module:action" permission name.
func PermissionString(module, action string) string {
	return module + ":" + action
}

// ModuleConfig describes one gated functional area for a role.
type ModuleConfig struct {
	Enabled bool     `json:"enabled"`
	Actions []string `json:"actions"`
}

// RolePermissions is the full permission configuration for one role.
// Permissions is derived from Modules and rebuilt on every mutation; it is
// never writable on its own.
type RolePermissions struct {
	Role        identity.Role           `json:"role"`
	Modules     map[string]ModuleConfig `json:"modules"`
	Permissions []string                `json:"permissions"`
	Pages       []string                `json:"pages"`
	Features    []string                `json:"features"`
}

// Clone deep-copies the record.
func (rp RolePermissions) Clone() RolePermissions {
	out := RolePermissions{
		Role:        rp.Role,
		Modules:     make(map[string]ModuleConfig, len(rp.Modules)),
		Permissions: append([]string(nil), rp.Permissions...),
		Pages:       append([]string(nil), rp.Pages...),
		Features:    append([]string(nil), rp.Features...),
	}
	for name, cfg := range rp.Modules {
		out.Modules[name] = ModuleConfig{
			Enabled: cfg.Enabled,
			Actions: append([]string(nil), cfg.Actions...),
		}
	}
	return out
}

// rebuild normalizes Modules and recomputes the derived Permissions list:
// disabled modules lose their actions, and Permissions becomes exactly the
// flattened "module:action" union across enabled modules.
func (rp *RolePermissions) rebuild() {
	perms := make([]string, 0, len(rp.Modules)*4)
	for name, cfg := range rp.Modules {
		if !cfg.Enabled {
			rp.Modules[name] = ModuleConfig{Enabled: false, Actions: []string{}}
			continue
		}
		actions := normalizeActions(cfg.Actions)
		rp.Modules[name] = ModuleConfig{Enabled: true, Actions: actions}
		for _, action := range actions {
			perms = append(perms, PermissionString(name, action))
		}
	}
	sort.Strings(perms)
	rp.Permissions = perms
}

// permissionSet returns the derived permissions as a lookup set.
func (rp *RolePermissions) permissionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(rp.Permissions))
	for _, perm := range rp.Permissions {
		set[perm] = struct{}{}
	}
	return set
}

func normalizeActions(actions []string) []string {
	unique := make(map[string]struct{}, len(actions))
	for _, action := range actions {
		action = strings.TrimSpace(strings.ToLower(action))
		if action == "" {
			continue
		}
		unique[action] = struct{}{}
	}
	out := make([]string, 0, len(unique))
	for action := range unique {
		out = append(out, action)
	}
	sort.Strings(out)
	return out
}
