package domain

import "fmt"

// Role is the closed set of principal roles. Ordering by privilege is
// SuperAdmin > Admin > Client > Visitor, but access decisions never rely
// on ordering, only on explicit permission membership.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleClient     Role = "Client"
	RoleVisitor    Role = "Visitor"
)

// ErrUnknownRole indicates a stored role string is outside the closed set.
// A credential carrying one is corrupt and must surface as an integrity
// failure rather than be treated as "no permissions".
type ErrUnknownRole struct {
	Value string
}

func (e ErrUnknownRole) Error() string {
	return fmt.Sprintf("unknown role %q", e.Value)
}

// ParseRole converts the canonical string form back into a Role.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleSuperAdmin, RoleAdmin, RoleClient, RoleVisitor:
		return Role(value), nil
	default:
		return "", ErrUnknownRole{Value: value}
	}
}

// String returns the canonical string form used in storage and tokens.
func (r Role) String() string {
	return string(r)
}
