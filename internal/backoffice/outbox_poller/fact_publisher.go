// Package outbox_poller drains the audit outbox to the fact stream.
// Facts are written to the outbox inside the business transaction; the
// poller gives them at-least-once delivery to Kafka.
package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/platform/messaging/producers"
)

// FactPublisher publishes outbox messages to the audit fact stream
type FactPublisher interface {
	PublishFact(ctx context.Context, message *audit.OutboxMessage) error
}

// FactPublisherImpl implements FactPublisher
type FactPublisherImpl struct {
	outboxRepo audit.OutboxRepository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewFactPublisher creates a new publisher
func NewFactPublisher(
	outboxRepo audit.OutboxRepository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) FactPublisher {
	return &FactPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishFact pushes one outbox message to the broker and marks it
// PROCESSED. Messages that cannot be decoded are parked as
// FAILED_TO_PUBLISH instead of being retried forever.
func (p *FactPublisherImpl) PublishFact(ctx context.Context, message *audit.OutboxMessage) error {
	fact, err := message.Fact()
	if err != nil {
		p.logger.Error("Failed to decode audit fact from outbox payload",
			"outbox_id", message.ID, "fact_id", message.FactID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, audit.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status after decode error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode fact for outbox %d failed: %w", message.ID, err)
	}

	// Key by fact id so replays land on the same partition
	if err := p.producer.Publish(ctx, fact.ID.String(), fact); err != nil {
		return fmt.Errorf("failed to publish fact %s: %w", fact.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, audit.OutboxStatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "fact_id", message.FactID, "error", err,
		)
		return fmt.Errorf("fact %s published, but failed to mark outbox %d as PROCESSED: %w", fact.ID, message.ID, err)
	}

	p.logger.Info("Audit fact published", "outbox_id", message.ID, "fact_id", message.FactID, "action", string(message.Action))
	return nil
}
