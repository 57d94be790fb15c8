package domain

// PermissionCode identifies a single capability. Codes are opaque: the
// service compares them for membership and nothing else.
type PermissionCode uint32

// Well-known permission codes referenced by the HTTP layer. The catalog
// may define more; these are the ones routes are gated on.
const (
	PermissionUserRead      PermissionCode = 1
	PermissionUserCreate    PermissionCode = 2
	PermissionCatalogImport PermissionCode = 3
)

// RolePermissionEntry is one catalog row: the canonical permission set
// for a role. At most one entry per role exists at any time; a role with
// no entry has the empty set by definition.
type RolePermissionEntry struct {
	Role        Role
	Permissions []PermissionCode
}

// HasPermission reports whether code is a member of perms.
func HasPermission(perms []PermissionCode, code PermissionCode) bool {
	for _, p := range perms {
		if p == code {
			return true
		}
	}
	return false
}

// SamePermissions compares two permission slices as sets, ignoring order
// and duplicates.
func SamePermissions(a, b []PermissionCode) bool {
	as := make(map[PermissionCode]struct{}, len(a))
	for _, p := range a {
		as[p] = struct{}{}
	}
	bs := make(map[PermissionCode]struct{}, len(b))
	for _, p := range b {
		bs[p] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for p := range as {
		if _, ok := bs[p]; !ok {
			return false
		}
	}
	return true
}
