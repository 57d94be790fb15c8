package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/repository"
)

type migrationDoc struct {
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

// LedgerRepository implements port.LedgerStore over the migrations
// collection. The step name doubles as the document key, which makes
// name uniqueness a storage-level guarantee.
type LedgerRepository struct {
	coll collection
}

// NewLedgerRepository wires a migration ledger store backed by the
// provided executor.
func NewLedgerRepository(exec pgExecutor) *LedgerRepository {
	return &LedgerRepository{coll: newCollection(exec, migrationsTable)}
}

// ListApplied returns every recorded migration.
func (r *LedgerRepository) ListApplied(ctx context.Context) ([]domain.MigrationRecord, error) {
	rows, err := r.coll.find(ctx, nil)
	if err != nil {
		return nil, err
	}

	records := make([]domain.MigrationRecord, 0, len(rows))
	for _, row := range rows {
		var doc migrationDoc
		if err := json.Unmarshal(row.Payload, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode migration %s: %v", repository.ErrIntegrity, row.ID, err)
		}
		records = append(records, domain.MigrationRecord{Name: doc.Name, AppliedAt: doc.AppliedAt})
	}

	return records, nil
}

// Append records a completed migration step.
func (r *LedgerRepository) Append(ctx context.Context, record domain.MigrationRecord) error {
	payload, err := json.Marshal(migrationDoc{
		Name:      record.Name,
		AppliedAt: record.AppliedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode migration: %w", err)
	}

	return r.coll.insertOne(ctx, record.Name, payload)
}

var _ port.LedgerStore = (*LedgerRepository)(nil)
