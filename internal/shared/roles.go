package shared

import "fmt"

// Role is the closed set of account roles. Authorization decisions switch
// on Role values, never on raw strings from the request.
type Role string

const (
	// RoleAdmin may manage user accounts and is exempt from deletion.
	RoleAdmin Role = "Admin"
	// RoleStaff is the default, non-privileged role.
	RoleStaff Role = "Staff"
)

// ParseRole normalises a stored or submitted role value. Legacy rows and
// OAuth-provisioned accounts carry "user", which maps to Staff.
func ParseRole(value string) (Role, error) {
	switch value {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleStaff), "user":
		return RoleStaff, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Privileged reports whether the role may access admin-only routes.
func (r Role) Privileged() bool {
	return r == RoleAdmin
}
