package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/branchday-backoffice/internal/domain/audit"
)

// factRecorder appends audit facts to the transactional outbox. The
// outbox row rides in the caller's database transaction, so a fact is
// only ever recorded for an outcome that committed.
type factRecorder struct {
	outboxRepo audit.OutboxRepository
}

func newFactRecorder(outboxRepo audit.OutboxRepository) *factRecorder {
	return &factRecorder{outboxRepo: outboxRepo}
}

// RecordInTx serializes the fact and stores it through the transaction
func (r *factRecorder) RecordInTx(ctx context.Context, tx pgx.Tx, fact *audit.Fact) error {
	message, err := audit.NewOutboxMessage(fact)
	if err != nil {
		return fmt.Errorf("failed to serialize audit fact: %w", err)
	}

	if err := r.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return fmt.Errorf("failed to record audit fact: %w", err)
	}

	return nil
}
