package dashboard

import "github.com/solterra-club/backoffice/internal/identity"

// DefaultCatalog returns the seeded widget catalog. Orders are spaced so
// runtime inserts can slot between existing widgets.
func DefaultCatalog() []Widget {
	return []Widget{
		{
			ID:                 "wgt-sales-summary",
			RequiredPermission: "reports:view",
			Enabled:            true,
			Order:              10,
		},
		{
			ID:                 "wgt-promotions",
			RequiredPermission: "catalog:view",
			Enabled:            true,
			Order:              15,
			RoleOverrides: map[identity.Role]RoleOverride{
				identity.RoleCustomer: {Enabled: true, Variant: "carousel"},
			},
		},
		{
			ID:                 "wgt-recent-orders",
			RequiredPermission: "orders:view",
			Enabled:            true,
			Order:              20,
		},
		{
			ID:                 "wgt-wallet-balance",
			RequiredPermission: "wallet:view",
			Enabled:            true,
			Order:              30,
		},
		{
			ID:                 "wgt-network-growth",
			RequiredPermission: "network:view",
			Enabled:            true,
			Order:              40,
		},
		{
			ID:                 "wgt-payment-queue",
			RequiredPermission: "payments:edit",
			Enabled:            true,
			Order:              50,
			RoleOverrides: map[identity.Role]RoleOverride{
				identity.RoleAdmin: {Enabled: true, Variant: "detailed"},
			},
		},
		{
			ID:                 "wgt-system-health",
			RequiredPermission: "settings:view",
			Enabled:            true,
			Order:              60,
		},
	}
}
