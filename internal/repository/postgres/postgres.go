package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgExecutor abstracts pgxpool.Pool, pgx.Tx, and pgxmock pools.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Collection table names. Each collection is a table of schemaless jsonb
// documents keyed by a string id.
const (
	usersTable         = "identity.users"
	credentialsTable   = "identity.auth"
	relationshipsTable = "identity.relationship"
	migrationsTable    = "identity.migrations"
)

// EnsureSchema creates the identity schema and collection tables if they
// do not exist yet. It must run before the migration ledger, which needs
// the migrations collection to record itself.
func EnsureSchema(ctx context.Context, exec pgExecutor) error {
	statements := []string{
		`CREATE SCHEMA IF NOT EXISTS identity`,
		`CREATE TABLE IF NOT EXISTS ` + usersTable + ` (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ` + credentialsTable + ` (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ` + relationshipsTable + ` (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`,
	}

	for _, stmt := range statements {
		if _, err := exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
