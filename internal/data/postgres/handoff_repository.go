package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/reconciliation"
	"github.com/branchday-backoffice/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// HandoffRepository implements the reconciliation.HandoffRepository
// interface for PostgreSQL
type HandoffRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewHandoffRepository creates a new PostgreSQL handoff submission repository
func NewHandoffRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.HandoffRepository {
	return &HandoffRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *HandoffRepository) WithTx(tx pgx.Tx) reconciliation.HandoffRepository {
	return &HandoffRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const handoffColumns = `id, teller_user_id, branch_code, business_date,
		declared_net, computed_net, discrepancy, note, submitted_at`

func scanHandoff(row pgx.Row) (*reconciliation.HandoffSubmission, error) {
	var sub reconciliation.HandoffSubmission
	err := row.Scan(
		&sub.ID,
		&sub.TellerUserID,
		&sub.BranchCode,
		&sub.BusinessDate,
		&sub.DeclaredNet,
		&sub.ComputedNet,
		&sub.Discrepancy,
		&sub.Note,
		&sub.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create stores a new handoff submission. Rows are never updated;
// resubmitting creates a new row and only the latest one counts.
func (r *HandoffRepository) Create(ctx context.Context, sub *reconciliation.HandoffSubmission) error {
	query := `
		INSERT INTO handoff_submissions (id, teller_user_id, branch_code, business_date,
			declared_net, computed_net, discrepancy, note, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		sub.ID,
		sub.TellerUserID,
		sub.BranchCode,
		sub.BusinessDate,
		sub.DeclaredNet,
		sub.ComputedNet,
		sub.Discrepancy,
		sub.Note,
		sub.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create handoff submission", "teller_user_id", sub.TellerUserID, "error", err)
		return fmt.Errorf("failed to create handoff submission: %w", err)
	}

	return nil
}

// LatestForTeller returns the teller's most recent submission for the
// date, or nil if none exists
func (r *HandoffRepository) LatestForTeller(ctx context.Context, tellerUserID string, businessDate time.Time) (*reconciliation.HandoffSubmission, error) {
	query := `
		SELECT ` + handoffColumns + `
		FROM handoff_submissions
		WHERE teller_user_id = $1 AND business_date = $2
		ORDER BY submitted_at DESC
		LIMIT 1
	`

	sub, err := scanHandoff(r.querier.QueryRow(ctx, query, tellerUserID, businessDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get handoff submission", "teller_user_id", tellerUserID, "error", err)
		return nil, fmt.Errorf("failed to get handoff submission: %w", err)
	}

	return sub, nil
}

// LatestPerTeller returns each teller's most recent submission for the
// branch and date
func (r *HandoffRepository) LatestPerTeller(ctx context.Context, branchCode string, businessDate time.Time) ([]*reconciliation.HandoffSubmission, error) {
	query := `
		SELECT DISTINCT ON (teller_user_id) ` + handoffColumns + `
		FROM handoff_submissions
		WHERE branch_code = $1 AND business_date = $2
		ORDER BY teller_user_id, submitted_at DESC
	`

	rows, err := r.querier.Query(ctx, query, branchCode, businessDate)
	if err != nil {
		r.logger.Error("Failed to list handoff submissions", "branch_code", branchCode, "error", err)
		return nil, fmt.Errorf("failed to list handoff submissions: %w", err)
	}
	defer rows.Close()

	var subs []*reconciliation.HandoffSubmission
	for rows.Next() {
		sub, err := scanHandoff(rows)
		if err != nil {
			r.logger.Error("Failed to scan handoff submission", "error", err)
			return nil, fmt.Errorf("failed to scan handoff submission: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over handoff submissions", "error", err)
		return nil, fmt.Errorf("error iterating over handoff submissions: %w", err)
	}

	return subs, nil
}
