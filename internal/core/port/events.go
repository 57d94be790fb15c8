package port

import (
	"context"

	"github.com/arklim/capability-identity/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishCatalogImported(ctx context.Context, event domain.CatalogImportedEvent) error
	PublishPermissionsSynced(ctx context.Context, event domain.PermissionsSyncedEvent) error
}
