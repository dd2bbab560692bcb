package rbac

import (
	"strings"

	"github.com/solterra-club/backoffice/internal/identity"
)

// The resolver answers visibility questions for the UI. It is a rendering
// gate under a client-trust model, not a security boundary: any deployment
// where authorization matters must duplicate these checks server-side.

// HasPermission reports whether the actor holds the "module:action"
// permission. Super admins hold every permission.
func (s *Store) HasPermission(actor *identity.Identity, permission string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == identity.RoleSuperAdmin {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[actor.Role][permission]
	return ok
}

// HasModuleAccess reports whether the actor's role has the module enabled.
func (s *Store) HasModuleAccess(actor *identity.Identity, module string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == identity.RoleSuperAdmin {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.roles[actor.Role]
	if !ok {
		return false
	}
	return record.Modules[module].Enabled
}

// HasModuleAction reports whether the actor's role has the module enabled and
// the action granted within it.
func (s *Store) HasModuleAction(actor *identity.Identity, module, action string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == identity.RoleSuperAdmin {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[actor.Role][PermissionString(module, action)]
	return ok
}

// HasPageAccess is the legacy coarse page check: wildcard or exact match.
func (s *Store) HasPageAccess(actor *identity.Identity, page string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == identity.RoleSuperAdmin {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.roles[actor.Role]
	if !ok {
		return false
	}
	for _, granted := range record.Pages {
		if granted == Wildcard || granted == page {
			return true
		}
	}
	return false
}

// HasFeatureAccess is the legacy coarse feature check: wildcard, exact match,
// or a granted value acting as a prefix of the requested feature (a "reports"
// grant also covers "reports-export"). The prefix behavior is long-standing;
// existing role configurations depend on it.
func (s *Store) HasFeatureAccess(actor *identity.Identity, feature string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == identity.RoleSuperAdmin {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.roles[actor.Role]
	if !ok {
		return false
	}
	for _, granted := range record.Features {
		if granted == Wildcard || granted == feature {
			return true
		}
		if granted != "" && strings.HasPrefix(feature, granted) {
			return true
		}
	}
	return false
}

// AllowedFunc returns a permission predicate for a role, used by the widget
// registry. Super admins pass every check.
func (s *Store) AllowedFunc(role identity.Role) func(permission string) bool {
	if role == identity.RoleSuperAdmin {
		return func(string) bool { return true }
	}
	return func(permission string) bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		_, ok := s.index[role][permission]
		return ok
	}
}
