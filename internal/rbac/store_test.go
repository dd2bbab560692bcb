package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/rbac"
	"github.com/solterra-club/backoffice/internal/shared"
	_ "github.com/solterra-club/backoffice/testing"
)

var (
	superAdmin = &identity.Identity{ID: "usr-root", Role: identity.RoleSuperAdmin}
	manager    = &identity.Identity{ID: "usr-mgr", Role: identity.RoleManager}
	customer   = &identity.Identity{ID: "usr-cust", Role: identity.RoleCustomer}
)

func newStore(t *testing.T) *rbac.Store {
	t.Helper()
	return rbac.NewStore(shared.NewMemoryStore(), nil)
}

func TestSuperAdminBypassesTable(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// Even with every module disabled, super admin checks stay true.
	for _, module := range []string{rbac.ModuleOrders, rbac.ModuleSettings, "made-up"} {
		require.NoError(t, store.DisableModuleForRole(ctx, superAdmin, identity.RoleSuperAdmin, module))
		require.True(t, store.HasModuleAccess(superAdmin, module))
		require.True(t, store.HasModuleAction(superAdmin, module, rbac.ActionView))
		require.True(t, store.HasPermission(superAdmin, rbac.PermissionString(module, rbac.ActionDelete)))
	}
}

func TestEnableModuleForRole(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.EnableModuleForRole(ctx, superAdmin, identity.RoleCustomer, rbac.ModuleReports,
		[]string{rbac.ActionView, rbac.ActionEdit})
	require.NoError(t, err)

	require.True(t, store.HasModuleAction(customer, rbac.ModuleReports, rbac.ActionView))
	require.True(t, store.HasModuleAction(customer, rbac.ModuleReports, rbac.ActionEdit))
	require.False(t, store.HasModuleAction(customer, rbac.ModuleReports, rbac.ActionDelete))

	record, ok := store.RolePermissionsFor(identity.RoleCustomer)
	require.True(t, ok)
	require.Contains(t, record.Permissions, "reports:view")
	require.Contains(t, record.Permissions, "reports:edit")
}

func TestDisableModuleStripsPermissions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.DisableModuleForRole(ctx, superAdmin, identity.RoleManager, rbac.ModuleOrders))

	for _, action := range []string{rbac.ActionView, rbac.ActionEdit, rbac.ActionApprove} {
		require.False(t, store.HasModuleAction(manager, rbac.ModuleOrders, action))
	}
	require.False(t, store.HasModuleAccess(manager, rbac.ModuleOrders))

	record, ok := store.RolePermissionsFor(identity.RoleManager)
	require.True(t, ok)
	require.Empty(t, record.Modules[rbac.ModuleOrders].Actions)
	for _, perm := range record.Permissions {
		require.NotContains(t, perm, "orders:")
	}
}

func TestDerivedPermissionsRebuiltOnUpdate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	config := rbac.RolePermissions{
		Modules: map[string]rbac.ModuleConfig{
			rbac.ModuleWallet: {Enabled: true, Actions: []string{rbac.ActionView, rbac.ActionWithdraw}},
			rbac.ModuleOrders: {Enabled: false, Actions: []string{rbac.ActionView}},
		},
		Pages:    []string{"wallet"},
		Features: []string{"support"},
	}
	// The caller-supplied Permissions list is ignored; it is derived.
	config.Permissions = []string{"orders:delete", "bogus:perm"}

	require.NoError(t, store.UpdateRolePermissions(ctx, superAdmin, identity.RoleAffiliate, config))

	record, ok := store.RolePermissionsFor(identity.RoleAffiliate)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"wallet:view", "wallet:withdraw"}, record.Permissions)
	// Disabled modules are normalized to an empty action set.
	require.Empty(t, record.Modules[rbac.ModuleOrders].Actions)
}

func TestMutationsDeniedForNonSuperAdmin(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	before, ok := store.RolePermissionsFor(identity.RoleCustomer)
	require.True(t, ok)

	err := store.DisableModuleForRole(ctx, manager, identity.RoleCustomer, rbac.ModuleOrders)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	err = store.EnableModuleForRole(ctx, nil, identity.RoleCustomer, rbac.ModuleSettings, []string{rbac.ActionView})
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	after, ok := store.RolePermissionsFor(identity.RoleCustomer)
	require.True(t, ok)
	require.Equal(t, before, after)
}

func TestCopyPermissionsFromRole(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CopyPermissionsFromRole(ctx, superAdmin, identity.RoleManager, identity.RoleCustomer))

	source, _ := store.RolePermissionsFor(identity.RoleManager)
	copied, _ := store.RolePermissionsFor(identity.RoleCustomer)
	require.Equal(t, identity.RoleCustomer, copied.Role)
	require.Equal(t, source.Modules, copied.Modules)
	require.ElementsMatch(t, source.Permissions, copied.Permissions)
	require.Equal(t, source.Pages, copied.Pages)
	require.Equal(t, source.Features, copied.Features)

	err := store.CopyPermissionsFromRole(ctx, superAdmin, identity.Role("owner"), identity.RoleCustomer)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRestoreAppliesPersistedOverrides(t *testing.T) {
	kv := shared.NewMemoryStore()
	ctx := context.Background()

	first := rbac.NewStore(kv, nil)
	require.NoError(t, first.DisableModuleForRole(ctx, superAdmin, identity.RoleCustomer, rbac.ModuleOrders))

	second := rbac.NewStore(kv, nil)
	require.True(t, second.HasModuleAccess(customer, rbac.ModuleOrders))
	require.NoError(t, second.Restore(ctx))
	require.False(t, second.HasModuleAccess(customer, rbac.ModuleOrders))
}

func TestRestoreCorruptOverrides(t *testing.T) {
	kv := shared.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "rbac:overrides", "{broken"))

	store := rbac.NewStore(kv, nil)
	require.Error(t, store.Restore(ctx))
	// Defaults stay intact after a failed restore.
	require.True(t, store.HasModuleAccess(customer, rbac.ModuleOrders))
}
