package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/repository"
)

func newCredentialMock(t *testing.T) (pgxmock.PgxPoolIface, *CredentialRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewCredentialRepository(mock)
}

func TestCredentialGetByUsername(t *testing.T) {
	mock, repo := newCredentialMock(t)

	doc := `{"user_id":"user-1","username":"alice","email":"alice@example.com","password":"hash","role":"Admin","permissions":[1,2]}`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, doc FROM identity.auth WHERE doc->>'username' = $1 LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"id", "doc"}).AddRow("cred-1", []byte(doc)))

	credential, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}

	if credential.ID != "cred-1" || credential.Role != domain.RoleAdmin {
		t.Fatalf("unexpected credential %+v", credential)
	}
	if !domain.SamePermissions(credential.Permissions, []domain.PermissionCode{1, 2}) {
		t.Fatalf("unexpected permissions %v", credential.Permissions)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCredentialGetByUsernameNotFound(t *testing.T) {
	mock, repo := newCredentialMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, doc FROM identity.auth WHERE doc->>'username' = $1 LIMIT 1")).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCredentialCreateConflict(t *testing.T) {
	mock, repo := newCredentialMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identity.auth (id,doc) VALUES ($1,$2)")).
		WithArgs("cred-1", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), domain.Credential{
		ID:       "cred-1",
		Username: "alice",
		Role:     domain.RoleClient,
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCredentialUpdatePermissions(t *testing.T) {
	mock, repo := newCredentialMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE identity.auth SET doc = jsonb_set(doc, $1::text[], $2::jsonb) WHERE id = $3")).
		WithArgs("{permissions}", []byte("[1,2]"), "cred-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePermissions(context.Background(), "cred-1", []domain.PermissionCode{1, 2}); err != nil {
		t.Fatalf("update permissions: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCredentialUpdatePermissionsMissing(t *testing.T) {
	mock, repo := newCredentialMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE identity.auth SET doc = jsonb_set(doc, $1::text[], $2::jsonb) WHERE id = $3")).
		WithArgs("{permissions}", []byte("[]"), "cred-gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdatePermissions(context.Background(), "cred-gone", nil); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCredentialListRejectsCorruptDocument(t *testing.T) {
	mock, repo := newCredentialMock(t)

	doc := `{"user_id":"user-1","username":"alice","email":"a@example.com","password":"hash","role":"NotARole","permissions":[]}`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, doc FROM identity.auth ORDER BY id ASC")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "doc"}).AddRow("cred-1", []byte(doc)))

	if _, err := repo.List(context.Background()); !errors.Is(err, repository.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}
