package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// AuditOutboxRepository implements the audit.OutboxRepository interface
// for PostgreSQL
type AuditOutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAuditOutboxRepository creates a new PostgreSQL audit outbox repository
func NewAuditOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) audit.OutboxRepository {
	return &AuditOutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction. Fact rows are written
// inside the same transaction as the business mutation they describe.
func (r *AuditOutboxRepository) WithTx(tx pgx.Tx) audit.OutboxRepository {
	return &AuditOutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new outbox message in pending status. The message
// will be picked up by the outbox poller for publishing.
func (r *AuditOutboxRepository) Create(ctx context.Context, message *audit.OutboxMessage) error {
	query := `
		INSERT INTO audit_outbox (fact_id, action, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.FactID,
		message.Action,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)

	if err != nil {
		r.logger.Error("Failed to create audit outbox message",
			"fact_id", message.FactID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create audit outbox message: %w", err)
	}

	return nil
}

// GetPending retrieves a batch of pending outbox messages ordered by
// creation time. The poller processes messages in FIFO order.
func (r *AuditOutboxRepository) GetPending(ctx context.Context, limit int) ([]*audit.OutboxMessage, error) {
	query := `
		SELECT id, fact_id, action, payload, status, attempts, created_at, last_attempt_at
		FROM audit_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, audit.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending audit outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending audit outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*audit.OutboxMessage
	for rows.Next() {
		var message audit.OutboxMessage
		err := rows.Scan(
			&message.ID,
			&message.FactID,
			&message.Action,
			&message.Payload,
			&message.Status,
			&message.Attempts,
			&message.CreatedAt,
			&message.LastAttemptAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan audit outbox message", "error", err)
			return nil, fmt.Errorf("failed to scan audit outbox message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over audit outbox messages", "error", err)
		return nil, fmt.Errorf("error iterating over audit outbox messages: %w", err)
	}

	return messages, nil
}

// UpdateStatus updates the message status and last attempt timestamp.
// Returns ErrMessageNotFound if the message doesn't exist.
func (r *AuditOutboxRepository) UpdateStatus(ctx context.Context, id int64, status audit.OutboxStatus) error {
	query := `
		UPDATE audit_outbox
		SET status = $1, last_attempt_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update audit outbox message status",
			"id", id,
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to update audit outbox message status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return audit.ErrMessageNotFound{ID: id}
	}

	return nil
}

// IncrementAttempts increments the retry counter and updates the last
// attempt time
func (r *AuditOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	query := `
		UPDATE audit_outbox
		SET attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to increment audit outbox message attempts",
			"id", id,
			"error", err,
		)
		return fmt.Errorf("failed to increment audit outbox message attempts: %w", err)
	}

	if result.RowsAffected() == 0 {
		return audit.ErrMessageNotFound{ID: id}
	}

	return nil
}
