package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/capability-identity/internal/core/domain"
)

func newCatalogService(t *testing.T, catalog *catalogRepoMock, credentials *credentialRepoMock, publisher *publisherMock) *CatalogService {
	t.Helper()
	return NewCatalogService(catalog, credentials, publisher, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC) })
}

func TestImportReplacesCatalog(t *testing.T) {
	catalog := &catalogRepoMock{entries: []domain.RolePermissionEntry{
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{9}},
	}}
	publisher := &publisherMock{}
	service := newCatalogService(t, catalog, newCredentialRepoMock(), publisher)

	err := service.Import(context.Background(), []domain.RolePermissionEntry{
		{Role: domain.RoleAdmin, Permissions: []domain.PermissionCode{1, 2}},
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{1}},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if catalog.deleteCalls != 1 {
		t.Fatalf("expected one delete-all, got %d", catalog.deleteCalls)
	}
	if len(catalog.entries) != 2 {
		t.Fatalf("expected 2 entries after import, got %d", len(catalog.entries))
	}
	if _, err := catalog.GetByRole(context.Background(), domain.RoleAdmin); err != nil {
		t.Fatalf("admin entry missing: %v", err)
	}
	if len(publisher.imported) != 1 || publisher.imported[0].Entries != 2 {
		t.Fatalf("unexpected imported events %+v", publisher.imported)
	}
}

func TestImportRejectsEmptyAndDuplicates(t *testing.T) {
	service := newCatalogService(t, &catalogRepoMock{}, newCredentialRepoMock(), &publisherMock{})

	if err := service.Import(context.Background(), nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}

	err := service.Import(context.Background(), []domain.RolePermissionEntry{
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{1}},
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{2}},
	})
	if !errors.Is(err, ErrDuplicateRole) {
		t.Fatalf("expected ErrDuplicateRole, got %v", err)
	}
}

func TestSyncConvergesStaleSnapshots(t *testing.T) {
	catalog := &catalogRepoMock{entries: []domain.RolePermissionEntry{
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{1, 2}},
	}}
	credentials := newCredentialRepoMock(
		domain.Credential{ID: "cred-stale", Username: "stale", Email: "stale@example.com", Role: domain.RoleClient, Permissions: []domain.PermissionCode{1}},
		domain.Credential{ID: "cred-current", Username: "current", Email: "current@example.com", Role: domain.RoleClient, Permissions: []domain.PermissionCode{2, 1}},
		domain.Credential{ID: "cred-orphan", Username: "orphan", Email: "orphan@example.com", Role: domain.RoleVisitor, Permissions: []domain.PermissionCode{7}},
	)
	publisher := &publisherMock{}
	service := newCatalogService(t, catalog, credentials, publisher)

	result, err := service.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if result.Scanned != 3 {
		t.Fatalf("expected 3 scanned, got %d", result.Scanned)
	}
	if result.Updated != 2 {
		t.Fatalf("expected 2 updated, got %d", result.Updated)
	}

	stale, _ := credentials.GetByUsername(context.Background(), "stale")
	if !domain.SamePermissions(stale.Permissions, []domain.PermissionCode{1, 2}) {
		t.Fatalf("stale credential not converged: %v", stale.Permissions)
	}

	// Role with no catalog entry converges to the empty set.
	orphan, _ := credentials.GetByUsername(context.Background(), "orphan")
	if len(orphan.Permissions) != 0 {
		t.Fatalf("orphan credential not cleared: %v", orphan.Permissions)
	}

	if len(publisher.synced) != 2 {
		t.Fatalf("expected 2 synced events, got %d", len(publisher.synced))
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	catalog := &catalogRepoMock{entries: []domain.RolePermissionEntry{
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{1}},
	}}
	credentials := newCredentialRepoMock(
		domain.Credential{ID: "cred-1", Username: "alice", Email: "alice@example.com", Role: domain.RoleClient, Permissions: []domain.PermissionCode{5}},
	)
	service := newCatalogService(t, catalog, credentials, &publisherMock{})

	first, err := service.Sync(context.Background())
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.Updated != 1 {
		t.Fatalf("expected 1 update on first sync, got %d", first.Updated)
	}

	second, err := service.Sync(context.Background())
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Updated != 0 {
		t.Fatalf("expected no updates on second sync, got %d", second.Updated)
	}
}

func TestSyncIsolatesPerCredentialFailures(t *testing.T) {
	catalog := &catalogRepoMock{entries: []domain.RolePermissionEntry{
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{1}},
	}}
	credentials := newCredentialRepoMock(
		domain.Credential{ID: "cred-bad", Username: "bad", Email: "bad@example.com", Role: domain.RoleClient, Permissions: []domain.PermissionCode{9}},
		domain.Credential{ID: "cred-good", Username: "good", Email: "good@example.com", Role: domain.RoleClient, Permissions: []domain.PermissionCode{9}},
	)
	credentials.updateErrs["cred-bad"] = errors.New("write failed")

	service := newCatalogService(t, catalog, credentials, &publisherMock{})

	result, err := service.Sync(context.Background())
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if result.Updated != 1 {
		t.Fatalf("expected the healthy credential to converge, got %d updates", result.Updated)
	}
	if result.Failed != 1 {
		t.Fatalf("expected the broken credential to be counted as failed, got %d", result.Failed)
	}

	good, _ := credentials.GetByUsername(context.Background(), "good")
	if !domain.SamePermissions(good.Permissions, []domain.PermissionCode{1}) {
		t.Fatalf("healthy credential not converged: %v", good.Permissions)
	}
}
