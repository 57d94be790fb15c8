package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/repository"
)

// relationshipDoc is the stored shape of one catalog entry: the role in
// canonical string form and its permission codes.
type relationshipDoc struct {
	Role  string   `json:"role"`
	Perms []uint32 `json:"perms"`
}

// CatalogRepository implements port.CatalogRepository over the
// relationship collection.
type CatalogRepository struct {
	coll collection
}

// NewCatalogRepository wires a catalog repository backed by the provided
// executor.
func NewCatalogRepository(exec pgExecutor) *CatalogRepository {
	return &CatalogRepository{coll: newCollection(exec, relationshipsTable)}
}

// GetByRole retrieves the catalog entry for one role.
func (r *CatalogRepository) GetByRole(ctx context.Context, role domain.Role) (*domain.RolePermissionEntry, error) {
	row, err := r.coll.findOne(ctx, fieldEq("role", role.String()))
	if err != nil {
		return nil, err
	}
	return decodeRelationship(row)
}

// List returns every catalog entry.
func (r *CatalogRepository) List(ctx context.Context) ([]domain.RolePermissionEntry, error) {
	rows, err := r.coll.find(ctx, nil)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.RolePermissionEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := decodeRelationship(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// DeleteAll empties the catalog ahead of a replace-all import.
func (r *CatalogRepository) DeleteAll(ctx context.Context) error {
	_, err := r.coll.deleteAll(ctx)
	return err
}

// InsertMany stores the supplied entries in a single statement.
func (r *CatalogRepository) InsertMany(ctx context.Context, entries []domain.RolePermissionEntry) error {
	rows := make([]documentRow, 0, len(entries))
	for _, entry := range entries {
		codes := make([]uint32, 0, len(entry.Permissions))
		for _, p := range entry.Permissions {
			codes = append(codes, uint32(p))
		}

		payload, err := json.Marshal(relationshipDoc{Role: entry.Role.String(), Perms: codes})
		if err != nil {
			return fmt.Errorf("encode relationship: %w", err)
		}

		rows = append(rows, documentRow{ID: uuid.NewString(), Payload: payload})
	}

	return r.coll.insertMany(ctx, rows)
}

func decodeRelationship(row documentRow) (*domain.RolePermissionEntry, error) {
	var doc relationshipDoc
	if err := json.Unmarshal(row.Payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode relationship %s: %v", repository.ErrIntegrity, row.ID, err)
	}

	role, err := domain.ParseRole(doc.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: relationship %s: %v", repository.ErrIntegrity, row.ID, err)
	}

	permissions := make([]domain.PermissionCode, 0, len(doc.Perms))
	for _, code := range doc.Perms {
		permissions = append(permissions, domain.PermissionCode(code))
	}

	return &domain.RolePermissionEntry{Role: role, Permissions: permissions}, nil
}

var _ port.CatalogRepository = (*CatalogRepository)(nil)
