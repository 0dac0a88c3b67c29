package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutboxMessage() *audit.OutboxMessage {
	return &audit.OutboxMessage{
		FactID:    uuid.New(),
		Action:    audit.ActionTransactionCreate,
		Payload:   []byte(`{"id":"x","action":"TRANSACTION_CREATE"}`),
		Status:    audit.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}
}

func TestAuditOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditOutboxRepository{querier: mock, logger: logger}
	message := testOutboxMessage()

	query := `INSERT INTO audit_outbox \(fact_id, action, payload, status, attempts, created_at\)`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(message.FactID, message.Action, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

		err := repo.Create(ctx, message)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), message.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("insert db error")
		mock.ExpectQuery(query).
			WithArgs(message.FactID, message.Action, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, message)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create audit outbox message")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditOutboxRepository{querier: mock, logger: logger}

	query := `SELECT id, fact_id, action, payload, status, attempts, created_at, last_attempt_at\s+FROM audit_outbox\s+WHERE status = \$1\s+ORDER BY created_at ASC\s+LIMIT \$2`

	t.Run("success", func(t *testing.T) {
		message := testOutboxMessage()
		rows := pgxmock.NewRows([]string{"id", "fact_id", "action", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(1), message.FactID, message.Action, message.Payload, message.Status, message.Attempts, message.CreatedAt, message.LastAttemptAt)

		mock.ExpectQuery(query).
			WithArgs(audit.OutboxStatusPending, 10).
			WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		assert.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Equal(t, message.FactID, messages[0].FactID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("query db error")
		mock.ExpectQuery(query).
			WithArgs(audit.OutboxStatusPending, 10).
			WillReturnError(dbErr)

		messages, err := repo.GetPending(ctx, 10)
		assert.Error(t, err)
		assert.Nil(t, messages)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditOutboxRepository{querier: mock, logger: logger}

	query := `UPDATE audit_outbox\s+SET status = \$1, last_attempt_at = \$2\s+WHERE id = \$3`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(audit.OutboxStatusProcessed, pgxmock.AnyArg(), int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, 5, audit.OutboxStatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(audit.OutboxStatusProcessed, pgxmock.AnyArg(), int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 5, audit.OutboxStatusProcessed)
		assert.Error(t, err)
		var notFoundErr audit.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, int64(5), notFoundErr.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditOutboxRepository{querier: mock, logger: logger}

	query := `UPDATE audit_outbox\s+SET attempts = attempts \+ 1, last_attempt_at = \$1\s+WHERE id = \$2`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.IncrementAttempts(ctx, 7)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementAttempts(ctx, 7)
		assert.Error(t, err)
		var notFoundErr audit.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
