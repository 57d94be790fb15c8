package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/capability-identity/internal/repository"
)

// documentRow is one stored document plus its key.
type documentRow struct {
	ID      string
	Payload []byte
}

// collection exposes document-store operations (create, find-by-filter,
// find-all, update-by-filter, delete-by-filter, insert-many) over a
// single jsonb table. Repositories build typed accessors on top of it.
type collection struct {
	exec    pgExecutor
	table   string
	builder squirrel.StatementBuilderType
}

func newCollection(exec pgExecutor, table string) collection {
	return collection{
		exec:    exec,
		table:   table,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// fieldEq builds an equality filter on a top-level string field of the
// document.
func fieldEq(field, value string) squirrel.Sqlizer {
	return squirrel.Eq{fmt.Sprintf("doc->>'%s'", field): value}
}

// byID filters on the document key.
func byID(id string) squirrel.Sqlizer {
	return squirrel.Eq{"id": id}
}

func (c collection) insertOne(ctx context.Context, id string, payload []byte) error {
	stmt, args, err := c.builder.Insert(c.table).
		Columns("id", "doc").
		Values(id, payload).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert %s sql: %w", c.table, err)
	}

	if _, err := c.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert into %s: %w", c.table, err)
	}

	return nil
}

func (c collection) insertMany(ctx context.Context, rows []documentRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := c.builder.Insert(c.table).Columns("id", "doc")
	for _, row := range rows {
		query = query.Values(row.ID, row.Payload)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert many %s sql: %w", c.table, err)
	}

	if _, err := c.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert many into %s: %w", c.table, err)
	}

	return nil
}

func (c collection) findOne(ctx context.Context, filter squirrel.Sqlizer) (documentRow, error) {
	query := c.builder.Select("id", "doc").From(c.table).Limit(1)
	if filter != nil {
		query = query.Where(filter)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return documentRow{}, fmt.Errorf("build select %s sql: %w", c.table, err)
	}

	var row documentRow
	if err := c.exec.QueryRow(ctx, stmt, args...).Scan(&row.ID, &row.Payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return documentRow{}, repository.ErrNotFound
		}
		return documentRow{}, fmt.Errorf("scan %s document: %w", c.table, err)
	}

	return row, nil
}

func (c collection) find(ctx context.Context, filter squirrel.Sqlizer) ([]documentRow, error) {
	query := c.builder.Select("id", "doc").From(c.table).OrderBy("id ASC")
	if filter != nil {
		query = query.Where(filter)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s sql: %w", c.table, err)
	}

	rows, err := c.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	defer rows.Close()

	result := make([]documentRow, 0)
	for rows.Next() {
		var row documentRow
		if err := rows.Scan(&row.ID, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan %s document: %w", c.table, err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.table, err)
	}

	return result, nil
}

// setField rewrites one top-level field of every document matching the
// filter and reports how many documents changed.
func (c collection) setField(ctx context.Context, filter squirrel.Sqlizer, field string, value []byte) (int64, error) {
	query := c.builder.Update(c.table).
		Set("doc", squirrel.Expr("jsonb_set(doc, ?::text[], ?::jsonb)", "{"+field+"}", value))
	if filter != nil {
		query = query.Where(filter)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update %s sql: %w", c.table, err)
	}

	ct, err := c.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.table, err)
	}

	return ct.RowsAffected(), nil
}

func (c collection) deleteAll(ctx context.Context) (int64, error) {
	stmt, args, err := c.builder.Delete(c.table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete %s sql: %w", c.table, err)
	}

	ct, err := c.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.table, err)
	}

	return ct.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
