package transaction

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Filter narrows ListForDate to a branch and/or teller scope. Empty
// fields match everything.
type Filter struct {
	BranchCode   string
	TellerUserID string
}

// Repository defines transaction persistence operations. Rows are
// append-only; MarkVoided's status flip is the only update.
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	// CountForBranchDate counts existing rows for (branch, date); the
	// next sequence number is count+1. Safe only together with the
	// unique constraint on transaction_id and retry on conflict.
	CountForBranchDate(ctx context.Context, branchCode string, businessDate time.Time) (int, error)

	// ListForDate returns all transactions for a business date within
	// the filter scope, ordered by creation time
	ListForDate(ctx context.Context, businessDate time.Time, filter Filter) ([]*Transaction, error)

	// ListForAccount returns the most recent transactions for one
	// account on a business date
	ListForAccount(ctx context.Context, accountKey, branchCode string, businessDate time.Time, limit int) ([]*Transaction, error)

	// MarkVoided flips the row to VOIDED and links its reversal
	MarkVoided(ctx context.Context, transactionID, voidReference string) error

	WithTx(tx pgx.Tx) Repository
}
