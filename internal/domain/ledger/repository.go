package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines account ledger persistence operations
type Repository interface {
	// Upsert applies a snapshot row: insert on first sight of the
	// composite key, full overwrite (including opening balance and
	// version reset) on re-upload
	Upsert(ctx context.Context, account *Account) error

	// GetByKey retrieves a ledger record by its composite key
	GetByKey(ctx context.Context, accountKey, branchCode string, loadedDate time.Time) (*Account, error)

	// LockForUpdate acquires a pessimistic lock on the ledger row for
	// the duration of a transaction-engine mutation
	LockForUpdate(ctx context.Context, accountKey, branchCode string, loadedDate time.Time) (*Account, error)

	// UpdateBalance writes the new balance with an optimistic version
	// condition; returns ErrVersionConflict if the row moved
	UpdateBalance(ctx context.Context, accountKey, branchCode string, loadedDate time.Time, newBalance decimal.Decimal, version int) error

	// CountForDate counts all ledger rows loaded for the date, across branches
	CountForDate(ctx context.Context, loadedDate time.Time) (int, error)

	// CountDistinctBranches counts distinct branches loaded for the date
	CountDistinctBranches(ctx context.Context, loadedDate time.Time) (int, error)

	WithTx(tx pgx.Tx) Repository
}
