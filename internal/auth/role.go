package auth

// Role is the closed set of account roles. ParseRole falls back to
// RoleCustomer for anything it does not recognize so that a bad value stored
// in a token or the database can never widen access.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole normalizes a raw role string into one of the known roles.
// Unknown input maps to RoleCustomer.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperadmin:
		return RoleSuperadmin
	default:
		return RoleCustomer
	}
}

// IsValid reports whether s is exactly one of the three known roles. It is
// used when an admin assigns a role explicitly, where silently downgrading
// to customer would hide a typo.
func IsValid(s string) bool {
	switch Role(s) {
	case RoleCustomer, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsStaff reports whether the role grants access to admin-only endpoints.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}
