package identity

import "time"

// Role groups identities by privilege. Order of increasing privilege:
// customer < affiliate < manager < admin < super_admin.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAffiliate  Role = "affiliate"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Roles lists every known role in ascending privilege order.
func Roles() []Role {
	return []Role{RoleCustomer, RoleAffiliate, RoleManager, RoleAdmin, RoleSuperAdmin}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAffiliate, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Rank returns the privilege rank of the role, higher meaning more
// privileged. Unknown roles rank below customer.
func (r Role) Rank() int {
	switch r {
	case RoleCustomer:
		return 1
	case RoleAffiliate:
		return 2
	case RoleManager:
		return 3
	case RoleAdmin:
		return 4
	case RoleSuperAdmin:
		return 5
	}
	return 0
}

// Identity represents a known back-office user record.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}
