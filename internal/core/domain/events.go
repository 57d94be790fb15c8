package domain

import "time"

// UserRegisteredEvent is emitted after a user and its credential are
// created.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Username     string
	Email        string
	Role         Role
	RegisteredAt time.Time
}

// CatalogImportedEvent is emitted after a replace-all catalog import.
type CatalogImportedEvent struct {
	EventID    string
	Entries    int
	ImportedAt time.Time
}

// PermissionsSyncedEvent is emitted for each credential whose snapshot
// was rewritten during catalog synchronization.
type PermissionsSyncedEvent struct {
	EventID      string
	CredentialID string
	Username     string
	Role         Role
	Permissions  []PermissionCode
	SyncedAt     time.Time
}
