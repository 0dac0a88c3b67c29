// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the back office.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/ledger"
	"github.com/branchday-backoffice/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the ledger.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account ledger repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls
func (r *AccountRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const accountColumns = `account_key, branch_code, loaded_date, full_account_number, account_name,
		current_balance, held_balance, opening_balance, operation_restrictions, liens, markers,
		version, created_at, updated_at`

func scanAccount(row pgx.Row) (*ledger.Account, error) {
	var acc ledger.Account
	err := row.Scan(
		&acc.AccountKey,
		&acc.BranchCode,
		&acc.LoadedDate,
		&acc.FullAccountNumber,
		&acc.AccountName,
		&acc.CurrentBalance,
		&acc.HeldBalance,
		&acc.OpeningBalance,
		&acc.OperationRestrictions,
		&acc.Liens,
		&acc.Markers,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Upsert applies a snapshot row. Re-uploading the same composite key
// fully overwrites the prior record, including the opening balance and
// version reset.
func (r *AccountRepository) Upsert(ctx context.Context, acc *ledger.Account) error {
	query := `
		INSERT INTO accounts (account_key, branch_code, loaded_date, full_account_number, account_name,
			current_balance, held_balance, opening_balance, operation_restrictions, liens, markers,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (account_key, branch_code, loaded_date) DO UPDATE SET
			full_account_number = EXCLUDED.full_account_number,
			account_name = EXCLUDED.account_name,
			current_balance = EXCLUDED.current_balance,
			held_balance = EXCLUDED.held_balance,
			opening_balance = EXCLUDED.opening_balance,
			operation_restrictions = EXCLUDED.operation_restrictions,
			liens = EXCLUDED.liens,
			markers = EXCLUDED.markers,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		acc.AccountKey,
		acc.BranchCode,
		acc.LoadedDate,
		acc.FullAccountNumber,
		acc.AccountName,
		acc.CurrentBalance,
		acc.HeldBalance,
		acc.OpeningBalance,
		acc.OperationRestrictions,
		acc.Liens,
		acc.Markers,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert account", "account_key", acc.AccountKey, "error", err)
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	return nil
}

// GetByKey retrieves an account by its composite key
func (r *AccountRepository) GetByKey(ctx context.Context, accountKey, branchCode string, loadedDate time.Time) (*ledger.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_key = $1 AND branch_code = $2 AND loaded_date = $3
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, accountKey, branchCode, loadedDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound{AccountKey: accountKey, BranchCode: branchCode}
		}
		r.logger.Error("Failed to get account", "account_key", accountKey, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// LockForUpdate obtains a pessimistic lock on the account row and
// returns its current state. Must be called within a transaction.
func (r *AccountRepository) LockForUpdate(ctx context.Context, accountKey, branchCode string, loadedDate time.Time) (*ledger.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_key = $1 AND branch_code = $2 AND loaded_date = $3
		FOR UPDATE
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, accountKey, branchCode, loadedDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound{AccountKey: accountKey, BranchCode: branchCode}
		}
		r.logger.Error("Failed to lock account for update", "account_key", accountKey, "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}

// UpdateBalance writes the new balance using optimistic locking.
// Returns ErrVersionConflict if the account was modified between read
// and update.
func (r *AccountRepository) UpdateBalance(ctx context.Context, accountKey, branchCode string, loadedDate time.Time, newBalance decimal.Decimal, version int) error {
	query := `
		UPDATE accounts
		SET current_balance = $1, version = version + 1, updated_at = NOW()
		WHERE account_key = $2 AND branch_code = $3 AND loaded_date = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query, newBalance, accountKey, branchCode, loadedDate, version)
	if err != nil {
		r.logger.Error("Failed to update account balance", "account_key", accountKey, "error", err)
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ledger.ErrVersionConflict{AccountKey: accountKey, Expected: version}
	}

	return nil
}

// CountForDate counts all ledger rows loaded for the date, across branches
func (r *AccountRepository) CountForDate(ctx context.Context, loadedDate time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM accounts
		WHERE loaded_date = $1
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, loadedDate).Scan(&count); err != nil {
		r.logger.Error("Failed to count accounts for date", "loaded_date", loadedDate, "error", err)
		return 0, fmt.Errorf("failed to count accounts for date: %w", err)
	}

	return count, nil
}

// CountDistinctBranches counts distinct branches loaded for the date
func (r *AccountRepository) CountDistinctBranches(ctx context.Context, loadedDate time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT branch_code)
		FROM accounts
		WHERE loaded_date = $1
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, loadedDate).Scan(&count); err != nil {
		r.logger.Error("Failed to count loaded branches", "loaded_date", loadedDate, "error", err)
		return 0, fmt.Errorf("failed to count loaded branches: %w", err)
	}

	return count, nil
}
