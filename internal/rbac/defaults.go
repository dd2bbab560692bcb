package rbac

import "github.com/solterra-club/backoffice/internal/identity"

// Module names gated by the back office.
const (
	ModuleDashboard = "dashboard"
	ModuleCatalog   = "catalog"
	ModuleOrders    = "orders"
	ModulePayments  = "payments"
	ModuleWallet    = "wallet"
	ModuleNetwork   = "network"
	ModuleUsers     = "users"
	ModuleReports   = "reports"
	ModuleSettings  = "settings"
)

// Common action names.
const (
	ActionView     = "view"
	ActionCreate   = "create"
	ActionEdit     = "edit"
	ActionDelete   = "delete"
	ActionExport   = "export"
	ActionApprove  = "approve"
	ActionWithdraw = "withdraw"
)

// DefaultTable returns the static default permission configuration, one
// record per role. Super admin bypasses the table at resolution time but
// still carries a full record so exports and copies stay symmetrical.
func DefaultTable() map[identity.Role]RolePermissions {
	table := map[identity.Role]RolePermissions{
		identity.RoleCustomer: {
			Role: identity.RoleCustomer,
			Modules: map[string]ModuleConfig{
				ModuleDashboard: {Enabled: true, Actions: []string{ActionView}},
				ModuleCatalog:   {Enabled: true, Actions: []string{ActionView}},
				ModuleOrders:    {Enabled: true, Actions: []string{ActionView, ActionCreate}},
				ModulePayments:  {Enabled: true, Actions: []string{ActionView}},
				ModuleWallet:    {Enabled: true, Actions: []string{ActionView}},
			},
			Pages:    []string{"dashboard", "catalog", "orders", "payments", "wallet", "profile"},
			Features: []string{"support", "notifications"},
		},
		identity.RoleAffiliate: {
			Role: identity.RoleAffiliate,
			Modules: map[string]ModuleConfig{
				ModuleDashboard: {Enabled: true, Actions: []string{ActionView}},
				ModuleCatalog:   {Enabled: true, Actions: []string{ActionView}},
				ModuleOrders:    {Enabled: true, Actions: []string{ActionView, ActionCreate}},
				ModulePayments:  {Enabled: true, Actions: []string{ActionView}},
				ModuleWallet:    {Enabled: true, Actions: []string{ActionView, ActionWithdraw}},
				ModuleNetwork:   {Enabled: true, Actions: []string{ActionView}},
				ModuleReports:   {Enabled: true, Actions: []string{ActionView}},
			},
			Pages:    []string{"dashboard", "catalog", "orders", "payments", "wallet", "network", "reports", "profile"},
			Features: []string{"support", "notifications", "referral"},
		},
		identity.RoleManager: {
			Role: identity.RoleManager,
			Modules: map[string]ModuleConfig{
				ModuleDashboard: {Enabled: true, Actions: []string{ActionView}},
				ModuleCatalog:   {Enabled: true, Actions: []string{ActionView, ActionEdit}},
				ModuleOrders:    {Enabled: true, Actions: []string{ActionView, ActionEdit, ActionApprove}},
				ModulePayments:  {Enabled: true, Actions: []string{ActionView, ActionEdit}},
				ModuleWallet:    {Enabled: true, Actions: []string{ActionView}},
				ModuleNetwork:   {Enabled: true, Actions: []string{ActionView, ActionEdit}},
				ModuleUsers:     {Enabled: true, Actions: []string{ActionView}},
				ModuleReports:   {Enabled: true, Actions: []string{ActionView, ActionExport}},
			},
			Pages:    []string{"dashboard", "catalog", "orders", "payments", "wallet", "network", "users", "reports", "profile"},
			Features: []string{"support", "notifications", "team"},
		},
		identity.RoleAdmin: {
			Role: identity.RoleAdmin,
			Modules: map[string]ModuleConfig{
				ModuleDashboard: {Enabled: true, Actions: []string{ActionView, ActionEdit}},
				ModuleCatalog:   {Enabled: true, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
				ModuleOrders:    {Enabled: true, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove}},
				ModulePayments:  {Enabled: true, Actions: []string{ActionView, ActionEdit, ActionApprove}},
				ModuleWallet:    {Enabled: true, Actions: []string{ActionView, ActionEdit}},
				ModuleNetwork:   {Enabled: true, Actions: []string{ActionView, ActionEdit}},
				ModuleUsers:     {Enabled: true, Actions: []string{ActionView, ActionCreate, ActionEdit}},
				ModuleReports:   {Enabled: true, Actions: []string{ActionView, ActionExport}},
				ModuleSettings:  {Enabled: true, Actions: []string{ActionView}},
			},
			Pages:    []string{Wildcard},
			Features: []string{Wildcard},
		},
		identity.RoleSuperAdmin: {
			Role: identity.RoleSuperAdmin,
			Modules: map[string]ModuleConfig{
				ModuleDashboard: {Enabled: true, Actions: []string{ActionView, ActionEdit}},
				ModuleCatalog:   {Enabled: true, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
				ModuleOrders:    {Enabled: true, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove}},
				ModulePayments:  {Enabled: true, Actions: []string{ActionView, ActionEdit, ActionApprove}},
				ModuleWallet:    {Enabled: true, Actions: []string{ActionView, ActionEdit, ActionWithdraw}},
				ModuleNetwork:   {Enabled: true, Actions: []string{ActionView, ActionEdit, ActionDelete}},
				ModuleUsers:     {Enabled: true, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
				ModuleReports:   {Enabled: true, Actions: []string{ActionView, ActionExport}},
				ModuleSettings:  {Enabled: true, Actions: []string{ActionView, ActionEdit}},
			},
			Pages:    []string{Wildcard},
			Features: []string{Wildcard},
		},
	}
	for role, rp := range table {
		rp.rebuild()
		table[role] = rp
	}
	return table
}
