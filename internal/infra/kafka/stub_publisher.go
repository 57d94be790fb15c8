package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when
// no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"username":      event.Username,
		"email":         event.Email,
		"role":          event.Role.String(),
		"registered_at": event.RegisteredAt,
	}
	p.logEvent(topicUserRegistered, event.RegisteredAt, payload)
	return nil
}

// PublishCatalogImported logs catalog.imported events.
func (p *StubPublisher) PublishCatalogImported(_ context.Context, event domain.CatalogImportedEvent) error {
	payload := map[string]any{
		"entries":     event.Entries,
		"imported_at": event.ImportedAt,
	}
	p.logEvent(topicCatalogImported, event.ImportedAt, payload)
	return nil
}

// PublishPermissionsSynced logs credential.permissions_synced events.
func (p *StubPublisher) PublishPermissionsSynced(_ context.Context, event domain.PermissionsSyncedEvent) error {
	payload := map[string]any{
		"credential_id": event.CredentialID,
		"username":      event.Username,
		"role":          event.Role.String(),
		"permissions":   event.Permissions,
		"synced_at":     event.SyncedAt,
	}
	p.logEvent(topicPermissionsSynced, event.SyncedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
