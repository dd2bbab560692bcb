package identity

import "time"

// Seed IDs referenced by the demo credential table and tests.
const (
	SeedCustomerID   = "usr-1001"
	SeedAffiliateID  = "usr-1002"
	SeedManagerID    = "usr-1003"
	SeedAdminID      = "usr-1004"
	SeedSuperAdminID = "usr-1005"
)

var seededAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// SeedCatalog returns the fixed demo identity catalog, one identity per role.
func SeedCatalog() []Identity {
	return []Identity{
		{ID: SeedCustomerID, Name: "Dana Whitfield", Email: "customer@example.com", Role: RoleCustomer, CreatedAt: seededAt},
		{ID: SeedAffiliateID, Name: "Marco Reyes", Email: "affiliate@example.com", Role: RoleAffiliate, CreatedAt: seededAt},
		{ID: SeedManagerID, Name: "Priya Nair", Email: "manager@example.com", Role: RoleManager, CreatedAt: seededAt},
		{ID: SeedAdminID, Name: "Tomas Lindqvist", Email: "admin@example.com", Role: RoleAdmin, CreatedAt: seededAt},
		{ID: SeedSuperAdminID, Name: "Elena Voss", Email: "superadmin@example.com", Role: RoleSuperAdmin, CreatedAt: seededAt},
	}
}

// SeedCredentials returns the demo credential sets. The customer account
// carries a second shared credential used by sales demos.
func SeedCredentials() map[string][]string {
	return map[string][]string{
		SeedCustomerID:   {"customer123", "demo2024"},
		SeedAffiliateID:  {"affiliate123"},
		SeedManagerID:    {"manager123"},
		SeedAdminID:      {"admin123"},
		SeedSuperAdminID: {"superadmin123", "demo2024"},
	}
}

// SeedDirectory builds the static directory and verifier for the demo catalog.
func SeedDirectory() (*StaticDirectory, *StaticCredentials) {
	return NewStaticDirectory(SeedCatalog()), NewStaticCredentials(SeedCredentials())
}
