package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/branchday-backoffice/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transactionColumns = `transaction_id, business_date, branch_code, account_key, type, amount,
		balance_before, balance_after, status, void_reference, teller_user_id, reference_note, created_at`

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	err := row.Scan(
		&tx.TransactionID,
		&tx.BusinessDate,
		&tx.BranchCode,
		&tx.AccountKey,
		&tx.Type,
		&tx.Amount,
		&tx.BalanceBefore,
		&tx.BalanceAfter,
		&tx.Status,
		&tx.VoidReference,
		&tx.TellerUserID,
		&tx.ReferenceNote,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Create stores a new transaction row. A unique constraint on
// transaction_id turns a sequence collision between concurrent writers
// into ErrDuplicateTransactionID so the caller can retry its unit.
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (transaction_id, business_date, branch_code, account_key, type, amount,
			balance_before, balance_after, status, void_reference, teller_user_id, reference_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		tx.TransactionID,
		tx.BusinessDate,
		tx.BranchCode,
		tx.AccountKey,
		tx.Type,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.Status,
		tx.VoidReference,
		tx.TellerUserID,
		tx.ReferenceNote,
		tx.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return transaction.ErrDuplicateTransactionID{TransactionID: tx.TransactionID}
		}
		r.logger.Error("Failed to create transaction", "transaction_id", tx.TransactionID, "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a transaction by its formatted id
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1
	`

	tx, err := scanTransaction(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get transaction", "transaction_id", transactionID, "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// CountForBranchDate counts existing rows for the branch and business
// date; the next sequence number is count + 1
func (r *TransactionRepository) CountForBranchDate(ctx context.Context, branchCode string, businessDate time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE branch_code = $1 AND business_date = $2
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, branchCode, businessDate).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "branch_code", branchCode, "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// ListForDate returns all transactions for a business date within the
// filter scope, ordered by creation time
func (r *TransactionRepository) ListForDate(ctx context.Context, businessDate time.Time, filter transaction.Filter) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE business_date = $1
			AND ($2 = '' OR branch_code = $2)
			AND ($3 = '' OR teller_user_id = $3)
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, businessDate, filter.BranchCode, filter.TellerUserID)
	if err != nil {
		r.logger.Error("Failed to list transactions", "business_date", businessDate, "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows, r.logger)
}

// ListForAccount returns the most recent transactions for one account
// on a business date
func (r *TransactionRepository) ListForAccount(ctx context.Context, accountKey, branchCode string, businessDate time.Time, limit int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_key = $1 AND branch_code = $2 AND business_date = $3
		ORDER BY created_at DESC
		LIMIT $4
	`

	rows, err := r.querier.Query(ctx, query, accountKey, branchCode, businessDate, limit)
	if err != nil {
		r.logger.Error("Failed to list account transactions", "account_key", accountKey, "error", err)
		return nil, fmt.Errorf("failed to list account transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows, r.logger)
}

// MarkVoided flips the row to VOIDED and links its reversal
func (r *TransactionRepository) MarkVoided(ctx context.Context, transactionID, voidReference string) error {
	query := `
		UPDATE transactions
		SET status = $1, void_reference = $2
		WHERE transaction_id = $3
	`

	result, err := r.querier.Exec(ctx, query, transaction.StatusVoided, voidReference, transactionID)
	if err != nil {
		r.logger.Error("Failed to mark transaction voided", "transaction_id", transactionID, "error", err)
		return fmt.Errorf("failed to mark transaction voided: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: transactionID}
	}

	return nil
}

func collectTransactions(rows pgx.Rows, logger *slog.Logger) ([]*transaction.Transaction, error) {
	var txs []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txs, nil
}
