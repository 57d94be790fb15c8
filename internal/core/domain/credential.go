package domain

import "time"

// User mirrors the persisted profile document in the users collection.
type User struct {
	ID           string
	Username     string
	Email        string
	RegisteredAt time.Time
}

// Credential binds a user identity to a role and a cached permission
// snapshot. Permissions is a denormalized copy of the catalog entry for
// Role taken at the last synchronization; it is the only source of truth
// for what a token minted from this credential may do. Only catalog sync
// rewrites it.
type Credential struct {
	ID           string
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Permissions  []PermissionCode
}

// MigrationRecord marks a named setup step as applied. Records are
// append-only; a name present in the ledger means the step ran to
// completion and must never run again.
type MigrationRecord struct {
	Name      string
	AppliedAt time.Time
}
