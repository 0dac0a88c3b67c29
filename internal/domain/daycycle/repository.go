package daycycle

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository defines business-day persistence operations
type Repository interface {
	// GetOrCreate returns the record for the date, creating it in
	// LOADING if it does not exist yet
	GetOrCreate(ctx context.Context, businessDate time.Time) (*Day, error)

	// LockForUpdate acquires a pessimistic lock on the day row so that
	// guard-check-then-write transitions are atomic. Must run inside a
	// transaction after GetOrCreate.
	LockForUpdate(ctx context.Context, businessDate time.Time) (*Day, error)

	// UpdateState persists the day's state and transition metadata
	UpdateState(ctx context.Context, day *Day) error

	// UpdateLoadCounts persists the recomputed snapshot counters
	UpdateLoadCounts(ctx context.Context, businessDate time.Time, branchesLoaded, totalAccountsLoaded int) error

	WithTx(tx pgx.Tx) Repository
}

// ErrDayNotFound indicates a missing day row where one was expected
type ErrDayNotFound struct {
	BusinessDate time.Time
}

func (e ErrDayNotFound) Error() string {
	return "business day not found: " + e.BusinessDate.Format("2006-01-02")
}
