package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HandoffSubmission is a teller's end-of-day declared net figure,
// snapshotted against the system-computed net at submission time.
// Submissions are immutable; resubmitting creates a new row and only
// the most recent counts for display. Prior rows are retained for
// audit.
type HandoffSubmission struct {
	ID           uuid.UUID       `json:"id"`
	TellerUserID string          `json:"teller_user_id"`
	BranchCode   string          `json:"branch_code"`
	BusinessDate time.Time       `json:"business_date"`
	DeclaredNet  decimal.Decimal `json:"declared_net"`
	ComputedNet  decimal.Decimal `json:"computed_net"`
	Discrepancy  decimal.Decimal `json:"discrepancy"`
	Note         string          `json:"note,omitempty"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

// NewHandoffSubmission snapshots a declaration against the computed
// net. Discrepancy = round(declared, 2) − computed.
func NewHandoffSubmission(tellerUserID, branchCode string, businessDate time.Time, declaredNet, computedNet decimal.Decimal, note string) *HandoffSubmission {
	declared := declaredNet.Round(2)
	return &HandoffSubmission{
		ID:           uuid.New(),
		TellerUserID: tellerUserID,
		BranchCode:   branchCode,
		BusinessDate: businessDate,
		DeclaredNet:  declared,
		ComputedNet:  computedNet,
		Discrepancy:  declared.Sub(computedNet).Round(2),
		Note:         note,
		SubmittedAt:  time.Now().UTC(),
	}
}
