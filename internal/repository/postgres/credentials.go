package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/repository"
)

// credentialDoc is the stored shape of a credential in the auth collection.
type credentialDoc struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []uint32 `json:"permissions"`
}

// CredentialRepository implements port.CredentialRepository over the auth
// collection.
type CredentialRepository struct {
	coll collection
}

// NewCredentialRepository wires a credential repository backed by the
// provided executor.
func NewCredentialRepository(exec pgExecutor) *CredentialRepository {
	return &CredentialRepository{coll: newCollection(exec, credentialsTable)}
}

// Create inserts a new credential document.
func (r *CredentialRepository) Create(ctx context.Context, credential domain.Credential) error {
	payload, err := json.Marshal(encodeCredential(credential))
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	return r.coll.insertOne(ctx, credential.ID, payload)
}

// GetByUsername retrieves the credential bound to the given username.
func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	row, err := r.coll.findOne(ctx, fieldEq("username", username))
	if err != nil {
		return nil, err
	}
	return decodeCredential(row)
}

// GetByEmail retrieves the credential bound to the given email.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	row, err := r.coll.findOne(ctx, fieldEq("email", email))
	if err != nil {
		return nil, err
	}
	return decodeCredential(row)
}

// List returns every stored credential. A document that fails to decode
// aborts the listing; corrupt credentials must not be skipped silently.
func (r *CredentialRepository) List(ctx context.Context) ([]domain.Credential, error) {
	rows, err := r.coll.find(ctx, nil)
	if err != nil {
		return nil, err
	}

	credentials := make([]domain.Credential, 0, len(rows))
	for _, row := range rows {
		credential, err := decodeCredential(row)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, *credential)
	}

	return credentials, nil
}

// UpdatePermissions rewrites the cached permission snapshot of one
// credential.
func (r *CredentialRepository) UpdatePermissions(ctx context.Context, id string, permissions []domain.PermissionCode) error {
	codes := make([]uint32, 0, len(permissions))
	for _, p := range permissions {
		codes = append(codes, uint32(p))
	}

	value, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}

	affected, err := r.coll.setField(ctx, byID(id), "permissions", value)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func encodeCredential(credential domain.Credential) credentialDoc {
	codes := make([]uint32, 0, len(credential.Permissions))
	for _, p := range credential.Permissions {
		codes = append(codes, uint32(p))
	}

	return credentialDoc{
		UserID:      credential.UserID,
		Username:    credential.Username,
		Email:       credential.Email,
		Password:    credential.PasswordHash,
		Role:        credential.Role.String(),
		Permissions: codes,
	}
}

func decodeCredential(row documentRow) (*domain.Credential, error) {
	var doc credentialDoc
	if err := json.Unmarshal(row.Payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode credential %s: %v", repository.ErrIntegrity, row.ID, err)
	}

	role, err := domain.ParseRole(doc.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: credential %s: %v", repository.ErrIntegrity, row.ID, err)
	}

	permissions := make([]domain.PermissionCode, 0, len(doc.Permissions))
	for _, code := range doc.Permissions {
		permissions = append(permissions, domain.PermissionCode(code))
	}

	return &domain.Credential{
		ID:           row.ID,
		UserID:       doc.UserID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		Role:         role,
		Permissions:  permissions,
	}, nil
}

var _ port.CredentialRepository = (*CredentialRepository)(nil)
