package port

import (
	"context"

	"github.com/arklim/capability-identity/internal/core/domain"
)

// UserRepository persists user profile documents.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// CredentialRepository persists credential documents (the auth collection).
type CredentialRepository interface {
	Create(ctx context.Context, credential domain.Credential) error
	GetByUsername(ctx context.Context, username string) (*domain.Credential, error)
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	List(ctx context.Context) ([]domain.Credential, error)
	UpdatePermissions(ctx context.Context, id string, permissions []domain.PermissionCode) error
}

// CatalogRepository persists the canonical role to permission mapping
// (the relationship collection).
type CatalogRepository interface {
	GetByRole(ctx context.Context, role domain.Role) (*domain.RolePermissionEntry, error)
	List(ctx context.Context) ([]domain.RolePermissionEntry, error)
	DeleteAll(ctx context.Context) error
	InsertMany(ctx context.Context, entries []domain.RolePermissionEntry) error
}

// LedgerStore persists the append-only record of applied migration steps.
type LedgerStore interface {
	ListApplied(ctx context.Context) ([]domain.MigrationRecord, error)
	Append(ctx context.Context, record domain.MigrationRecord) error
}
