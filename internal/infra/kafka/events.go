package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	topicUserRegistered    = "user.registered"
	topicCatalogImported   = "catalog.imported"
	topicPermissionsSynced = "credential.permissions_synced"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		Role         string    `json:"role"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		Role:         event.Role.String(),
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, topicUserRegistered, event.RegisteredAt, payload)
}

// PublishCatalogImported publishes catalog.imported events.
func (p *EventPublisher) PublishCatalogImported(ctx context.Context, event domain.CatalogImportedEvent) error {
	payload := struct {
		Entries    int       `json:"entries"`
		ImportedAt time.Time `json:"imported_at"`
	}{
		Entries:    event.Entries,
		ImportedAt: event.ImportedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, topicCatalogImported, event.ImportedAt, payload)
}

// PublishPermissionsSynced publishes credential.permissions_synced events.
func (p *EventPublisher) PublishPermissionsSynced(ctx context.Context, event domain.PermissionsSyncedEvent) error {
	codes := make([]uint32, len(event.Permissions))
	for i, perm := range event.Permissions {
		codes[i] = uint32(perm)
	}

	payload := struct {
		CredentialID string    `json:"credential_id"`
		Username     string    `json:"username"`
		Role         string    `json:"role"`
		Permissions  []uint32  `json:"permissions"`
		SyncedAt     time.Time `json:"synced_at"`
	}{
		CredentialID: event.CredentialID,
		Username:     event.Username,
		Role:         event.Role.String(),
		Permissions:  codes,
		SyncedAt:     event.SyncedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, topicPermissionsSynced, event.SyncedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
