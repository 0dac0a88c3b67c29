package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// DayRepository implements the daycycle.Repository interface for PostgreSQL
type DayRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDayRepository creates a new PostgreSQL business-day repository
func NewDayRepository(logger *slog.Logger, db *persistence.PostgresDB) daycycle.Repository {
	return &DayRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so that a
// lock-check-update transition is atomic
func (r *DayRepository) WithTx(tx pgx.Tx) daycycle.Repository {
	return &DayRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const dayColumns = `business_date, state, branches_loaded, total_accounts_loaded,
		opened_at, opened_by, closed_at, closed_by, created_at, updated_at`

func scanDay(row pgx.Row) (*daycycle.Day, error) {
	var day daycycle.Day
	err := row.Scan(
		&day.BusinessDate,
		&day.State,
		&day.BranchesLoaded,
		&day.TotalAccountsLoaded,
		&day.OpenedAt,
		&day.OpenedBy,
		&day.ClosedAt,
		&day.ClosedBy,
		&day.CreatedAt,
		&day.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// GetOrCreate returns the day record for the given business date,
// lazily creating it in LOADING. The ON CONFLICT no-op insert keeps
// concurrent first-touch requests from racing.
func (r *DayRepository) GetOrCreate(ctx context.Context, businessDate time.Time) (*daycycle.Day, error) {
	insert := `
		INSERT INTO day_cycles (business_date, state, branches_loaded, total_accounts_loaded, created_at, updated_at)
		VALUES ($1, $2, 0, 0, NOW(), NOW())
		ON CONFLICT (business_date) DO NOTHING
	`

	if _, err := r.querier.Exec(ctx, insert, businessDate, daycycle.StateLoading); err != nil {
		r.logger.Error("Failed to create day cycle", "business_date", businessDate, "error", err)
		return nil, fmt.Errorf("failed to create day cycle: %w", err)
	}

	query := `
		SELECT ` + dayColumns + `
		FROM day_cycles
		WHERE business_date = $1
	`

	day, err := scanDay(r.querier.QueryRow(ctx, query, businessDate))
	if err != nil {
		r.logger.Error("Failed to get day cycle", "business_date", businessDate, "error", err)
		return nil, fmt.Errorf("failed to get day cycle: %w", err)
	}

	return day, nil
}

// LockForUpdate obtains a pessimistic lock on the day row and returns
// its current state. Must be called within a transaction.
func (r *DayRepository) LockForUpdate(ctx context.Context, businessDate time.Time) (*daycycle.Day, error) {
	query := `
		SELECT ` + dayColumns + `
		FROM day_cycles
		WHERE business_date = $1
		FOR UPDATE
	`

	day, err := scanDay(r.querier.QueryRow(ctx, query, businessDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, daycycle.ErrDayNotFound{BusinessDate: businessDate}
		}
		r.logger.Error("Failed to lock day cycle", "business_date", businessDate, "error", err)
		return nil, fmt.Errorf("failed to lock day cycle: %w", err)
	}

	return day, nil
}

// UpdateState persists the day's state and transition metadata
func (r *DayRepository) UpdateState(ctx context.Context, day *daycycle.Day) error {
	query := `
		UPDATE day_cycles
		SET state = $1, opened_at = $2, opened_by = $3, closed_at = $4, closed_by = $5, updated_at = NOW()
		WHERE business_date = $6
	`

	result, err := r.querier.Exec(ctx, query,
		day.State,
		day.OpenedAt,
		day.OpenedBy,
		day.ClosedAt,
		day.ClosedBy,
		day.BusinessDate,
	)
	if err != nil {
		r.logger.Error("Failed to update day state", "business_date", day.BusinessDate, "error", err)
		return fmt.Errorf("failed to update day state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return daycycle.ErrDayNotFound{BusinessDate: day.BusinessDate}
	}

	return nil
}

// UpdateLoadCounts persists the recomputed snapshot counters after a load
func (r *DayRepository) UpdateLoadCounts(ctx context.Context, businessDate time.Time, branchesLoaded, totalAccountsLoaded int) error {
	query := `
		UPDATE day_cycles
		SET branches_loaded = $1, total_accounts_loaded = $2, updated_at = NOW()
		WHERE business_date = $3
	`

	result, err := r.querier.Exec(ctx, query, branchesLoaded, totalAccountsLoaded, businessDate)
	if err != nil {
		r.logger.Error("Failed to update day load counts", "business_date", businessDate, "error", err)
		return fmt.Errorf("failed to update day load counts: %w", err)
	}

	if result.RowsAffected() == 0 {
		return daycycle.ErrDayNotFound{BusinessDate: businessDate}
	}

	return nil
}
