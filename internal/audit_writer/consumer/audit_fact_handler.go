package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/branchday-backoffice/internal/audit_writer/service"
	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/platform/messaging/producers"
)

// AuditFactHandler handles incoming audit fact messages from Kafka
type AuditFactHandler struct {
	persistenceService service.PersistenceService
	producer           producers.DeadLetterPublisher
	logger             *slog.Logger
}

// NewAuditFactHandler creates a new handler
func NewAuditFactHandler(
	logger *slog.Logger,
	persistenceService service.PersistenceService,
	producer producers.DeadLetterPublisher,
) *AuditFactHandler {
	return &AuditFactHandler{
		persistenceService: persistenceService,
		producer:           producer,
		logger:             logger,
	}
}

// HandleMessage processes Kafka messages
func (h *AuditFactHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var fact audit.Fact
	if err := json.Unmarshal(value, &fact); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal audit fact from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	h.logger.Info("Received audit fact for persistence",
		"fact_id", fact.ID.String(),
		"action", string(fact.Action),
		"entity_type", fact.EntityType,
		"entity_id", fact.EntityID,
	)

	if err := h.persistenceService.PersistFact(ctx, &fact); err != nil {
		h.logger.Error("Failed to persist audit fact",
			"fact_id", fact.ID.String(),
			"error", err,
		)
		return fmt.Errorf("persisting audit fact %s failed: %w", fact.ID, err)
	}

	return nil // Success, commit offset
}
