package handlers

import (
	"context"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/repository"
)

type userStoreStub struct {
	users []domain.User
}

func (s *userStoreStub) Create(_ context.Context, user domain.User) error {
	s.users = append(s.users, user)
	return nil
}

func (s *userStoreStub) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userStoreStub) List(_ context.Context) ([]domain.User, error) {
	return s.users, nil
}

type credentialStoreStub struct {
	credentials []domain.Credential
	updateErr   error
}

func (s *credentialStoreStub) Create(_ context.Context, credential domain.Credential) error {
	s.credentials = append(s.credentials, credential)
	return nil
}

func (s *credentialStoreStub) GetByUsername(_ context.Context, username string) (*domain.Credential, error) {
	for _, credential := range s.credentials {
		if credential.Username == username {
			return &credential, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *credentialStoreStub) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	for _, credential := range s.credentials {
		if credential.Email == email {
			return &credential, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *credentialStoreStub) List(_ context.Context) ([]domain.Credential, error) {
	return s.credentials, nil
}

func (s *credentialStoreStub) UpdatePermissions(_ context.Context, id string, permissions []domain.PermissionCode) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.credentials {
		if s.credentials[i].ID == id {
			s.credentials[i].Permissions = permissions
			return nil
		}
	}
	return repository.ErrNotFound
}

type catalogStoreStub struct {
	entries []domain.RolePermissionEntry
}

func (s *catalogStoreStub) GetByRole(_ context.Context, role domain.Role) (*domain.RolePermissionEntry, error) {
	for _, entry := range s.entries {
		if entry.Role == role {
			return &entry, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *catalogStoreStub) List(_ context.Context) ([]domain.RolePermissionEntry, error) {
	return s.entries, nil
}

func (s *catalogStoreStub) DeleteAll(_ context.Context) error {
	s.entries = nil
	return nil
}

func (s *catalogStoreStub) InsertMany(_ context.Context, entries []domain.RolePermissionEntry) error {
	s.entries = append(s.entries, entries...)
	return nil
}

type publisherStub struct{}

func (publisherStub) PublishUserRegistered(_ context.Context, _ domain.UserRegisteredEvent) error {
	return nil
}

func (publisherStub) PublishCatalogImported(_ context.Context, _ domain.CatalogImportedEvent) error {
	return nil
}

func (publisherStub) PublishPermissionsSynced(_ context.Context, _ domain.PermissionsSyncedEvent) error {
	return nil
}
