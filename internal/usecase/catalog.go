package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/repository"
)

// ErrEmptyCatalog indicates an import was attempted with no entries.
var ErrEmptyCatalog = errors.New("catalog import requires at least one entry")

// ErrDuplicateRole indicates an import payload defines a role twice.
var ErrDuplicateRole = errors.New("catalog import defines a role more than once")

// CatalogService owns the role to permission catalog and keeps
// credential snapshots converged to it.
type CatalogService struct {
	catalog     port.CatalogRepository
	credentials port.CredentialRepository
	events      port.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewCatalogService constructs a CatalogService instance.
func NewCatalogService(
	catalog port.CatalogRepository,
	credentials port.CredentialRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{
		catalog:     catalog,
		credentials: credentials,
		events:      events,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

// List returns the current catalog contents.
func (s *CatalogService) List(ctx context.Context) ([]domain.RolePermissionEntry, error) {
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return entries, nil
}

// Import replaces the whole catalog with the provided entries. The old
// contents are discarded first; roles absent from the new payload lose
// their entry entirely.
func (s *CatalogService) Import(ctx context.Context, entries []domain.RolePermissionEntry) error {
	if len(entries) == 0 {
		return ErrEmptyCatalog
	}

	seen := make(map[domain.Role]struct{}, len(entries))
	for _, entry := range entries {
		if _, err := domain.ParseRole(entry.Role.String()); err != nil {
			return err
		}
		if _, ok := seen[entry.Role]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRole, entry.Role)
		}
		seen[entry.Role] = struct{}{}
	}

	if err := s.catalog.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	if err := s.catalog.InsertMany(ctx, entries); err != nil {
		return fmt.Errorf("install catalog entries: %w", err)
	}

	importedAt := s.now().UTC()
	event := domain.CatalogImportedEvent{
		EventID:    uuid.NewString(),
		Entries:    len(entries),
		ImportedAt: importedAt,
	}
	if err := s.events.PublishCatalogImported(ctx, event); err != nil {
		s.logger.Warn("publish catalog imported event failed", zap.Error(err))
	}

	s.logger.Info("catalog imported", zap.Int("entries", len(entries)))
	return nil
}

// SyncResult reports the outcome of a credential snapshot sweep.
type SyncResult struct {
	Scanned int
	Updated int
	Failed  int
}

// Sync sweeps every credential and rewrites snapshots that no longer
// match the catalog. A credential whose role has no catalog entry
// converges to the empty set. One credential failing does not stop the
// sweep; failures are aggregated and returned alongside the counts.
func (s *CatalogService) Sync(ctx context.Context) (SyncResult, error) {
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list catalog: %w", err)
	}

	canonical := make(map[domain.Role][]domain.PermissionCode, len(entries))
	for _, entry := range entries {
		canonical[entry.Role] = entry.Permissions
	}

	credentials, err := s.credentials.List(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list credentials: %w", err)
	}

	result := SyncResult{Scanned: len(credentials)}
	var failures []error

	for _, credential := range credentials {
		desired := canonical[credential.Role]

		if domain.SamePermissions(credential.Permissions, desired) {
			continue
		}

		if err := s.credentials.UpdatePermissions(ctx, credential.ID, desired); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Deleted mid-sweep; nothing to converge.
				continue
			}
			result.Failed++
			failures = append(failures, fmt.Errorf("sync credential %s: %w", credential.ID, err))
			continue
		}

		result.Updated++

		event := domain.PermissionsSyncedEvent{
			EventID:      uuid.NewString(),
			CredentialID: credential.ID,
			Username:     credential.Username,
			Role:         credential.Role,
			Permissions:  desired,
			SyncedAt:     s.now().UTC(),
		}
		if err := s.events.PublishPermissionsSynced(ctx, event); err != nil {
			s.logger.Warn("publish permissions synced event failed",
				zap.String("credential_id", credential.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("catalog sync completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)

	return result, errors.Join(failures...)
}
