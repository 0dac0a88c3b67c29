package reconciliation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// HandoffRepository defines handoff submission persistence. Inserts
// only; submissions are never updated or deleted.
type HandoffRepository interface {
	Create(ctx context.Context, submission *HandoffSubmission) error

	// LatestForTeller returns the teller's most recent submission for
	// the date, or nil if none exists
	LatestForTeller(ctx context.Context, tellerUserID string, businessDate time.Time) (*HandoffSubmission, error)

	// LatestPerTeller returns each teller's most recent submission for
	// the (branch, date) scope
	LatestPerTeller(ctx context.Context, branchCode string, businessDate time.Time) ([]*HandoffSubmission, error)

	WithTx(tx pgx.Tx) HandoffRepository
}
