package usecase

import (
	"context"
	"sync"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/repository"
)

type credentialRepoMock struct {
	mu          sync.Mutex
	byUsername  map[string]domain.Credential
	byEmail     map[string]domain.Credential
	createErr   error
	updateErrs  map[string]error
	updateCalls []string
}

func newCredentialRepoMock(credentials ...domain.Credential) *credentialRepoMock {
	m := &credentialRepoMock{
		byUsername: make(map[string]domain.Credential),
		byEmail:    make(map[string]domain.Credential),
		updateErrs: make(map[string]error),
	}
	for _, credential := range credentials {
		m.byUsername[credential.Username] = credential
		m.byEmail[credential.Email] = credential
	}
	return m
}

func (m *credentialRepoMock) Create(_ context.Context, credential domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byUsername[credential.Username]; exists {
		return repository.ErrConflict
	}
	m.byUsername[credential.Username] = credential
	m.byEmail[credential.Email] = credential
	return nil
}

func (m *credentialRepoMock) GetByUsername(_ context.Context, username string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if credential, ok := m.byUsername[username]; ok {
		return &credential, nil
	}
	return nil, repository.ErrNotFound
}

func (m *credentialRepoMock) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if credential, ok := m.byEmail[email]; ok {
		return &credential, nil
	}
	return nil, repository.ErrNotFound
}

func (m *credentialRepoMock) List(_ context.Context) ([]domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Credential, 0, len(m.byUsername))
	for _, credential := range m.byUsername {
		out = append(out, credential)
	}
	return out, nil
}

func (m *credentialRepoMock) UpdatePermissions(_ context.Context, id string, permissions []domain.PermissionCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls = append(m.updateCalls, id)
	if err, ok := m.updateErrs[id]; ok {
		return err
	}
	for username, credential := range m.byUsername {
		if credential.ID == id {
			credential.Permissions = permissions
			m.byUsername[username] = credential
			m.byEmail[credential.Email] = credential
			return nil
		}
	}
	return repository.ErrNotFound
}

type userRepoMock struct {
	users     []domain.User
	createErr error
	listErr   error
}

func (m *userRepoMock) Create(_ context.Context, user domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.users = append(m.users, user)
	return nil
}

func (m *userRepoMock) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) List(_ context.Context) ([]domain.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.users, nil
}

type catalogRepoMock struct {
	entries     []domain.RolePermissionEntry
	deleteCalls int
	insertCalls int
	deleteErr   error
	insertErr   error
	listErr     error
}

func (m *catalogRepoMock) GetByRole(_ context.Context, role domain.Role) (*domain.RolePermissionEntry, error) {
	for _, entry := range m.entries {
		if entry.Role == role {
			return &entry, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *catalogRepoMock) List(_ context.Context) ([]domain.RolePermissionEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

func (m *catalogRepoMock) DeleteAll(_ context.Context) error {
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.entries = nil
	return nil
}

func (m *catalogRepoMock) InsertMany(_ context.Context, entries []domain.RolePermissionEntry) error {
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, entries...)
	return nil
}

type publisherMock struct {
	registered []domain.UserRegisteredEvent
	imported   []domain.CatalogImportedEvent
	synced     []domain.PermissionsSyncedEvent
	err        error
}

func (m *publisherMock) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	if m.err != nil {
		return m.err
	}
	m.registered = append(m.registered, event)
	return nil
}

func (m *publisherMock) PublishCatalogImported(_ context.Context, event domain.CatalogImportedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.imported = append(m.imported, event)
	return nil
}

func (m *publisherMock) PublishPermissionsSynced(_ context.Context, event domain.PermissionsSyncedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.synced = append(m.synced, event)
	return nil
}
