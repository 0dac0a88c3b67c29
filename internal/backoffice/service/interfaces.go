package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/ledger"
	"github.com/branchday-backoffice/internal/domain/reconciliation"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
)

// DayService drives the business-day state machine
type DayService interface {
	// CurrentDay returns the day record for the business date, creating
	// it lazily in LOADING on first touch
	CurrentDay(ctx context.Context, businessDate time.Time) (*daycycle.Day, error)

	// Transition moves the day to the target state. A request for the
	// current state is an idempotent no-op. Returns ErrInvalidTransition
	// for edges outside the transition table and ErrNotLoaded for
	// LOADING to OPEN before any snapshot load.
	Transition(ctx context.Context, businessDate time.Time, target daycycle.State, actor shared.Actor) (*daycycle.Day, error)
}

// SnapshotLoadResult reports the outcome of one branch snapshot application
type SnapshotLoadResult struct {
	BranchCode          string `json:"branch_code"`
	RowsLoaded          int    `json:"rows_loaded"`
	BranchesLoaded      int    `json:"branches_loaded"`
	TotalAccountsLoaded int    `json:"total_accounts_loaded"`
}

// AccountView is one ledger record together with its recent activity
type AccountView struct {
	Account      *ledger.Account            `json:"account"`
	Transactions []*transaction.Transaction `json:"transactions"`
}

// SnapshotService applies branch account snapshots and serves ledger reads
type SnapshotService interface {
	// LoadSnapshot applies validated snapshot rows for one branch.
	// Allowed while the day is CLOSED or LOADING; a CLOSED day is
	// forced into LOADING. Returns ErrDayNotLoadable otherwise.
	LoadSnapshot(ctx context.Context, businessDate time.Time, branchCode string, rows []ledger.SnapshotRow, actor shared.Actor) (*SnapshotLoadResult, error)

	// GetAccount returns the ledger record and its recent transactions
	// for the business date
	GetAccount(ctx context.Context, businessDate time.Time, accountKey, branchCode string) (*AccountView, error)
}

// CreateTransactionInput is the validated input for one ledger mutation.
// ExpectedVersion, when positive, must match the account's current
// version or the mutation fails with ErrVersionConflict; zero skips the
// check.
type CreateTransactionInput struct {
	AccountKey      string
	BranchCode      string
	Type            transaction.Type
	Amount          decimal.Decimal
	ExpectedVersion int
	ReferenceNote   string
}

// VoidResult carries the voided original and its reversal
type VoidResult struct {
	Original *transaction.Transaction `json:"original"`
	Reversal *transaction.Transaction `json:"reversal"`
}

// TransactionService executes ledger mutations as atomic units
type TransactionService interface {
	// CreateTransaction performs a deposit or withdrawal against an
	// account. The transaction row, balance update and audit fact
	// commit together or not at all.
	CreateTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, input CreateTransactionInput) (*transaction.Transaction, error)

	// VoidTransaction reverses a same-day transaction with an equal and
	// opposite entry and marks the original VOIDED
	VoidTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, transactionID string) (*VoidResult, error)

	// GetTransaction retrieves one transaction by its formatted id
	GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error)
}

// SummaryView pairs the scope's transaction fold with the day state so
// clients can tell whether handoffs are currently accepted. Handoff is
// the teller's most recent submission for the date, nil for other
// roles or when nothing was submitted yet.
type SummaryView struct {
	Summary   reconciliation.Summary            `json:"summary"`
	DayState  daycycle.State                    `json:"day_state"`
	CanSubmit bool                              `json:"can_submit"`
	Handoff   *reconciliation.HandoffSubmission `json:"handoff,omitempty"`
}

// TellerHandoffStatus is one teller's line in the branch handoff view
type TellerHandoffStatus struct {
	TellerUserID string                            `json:"teller_user_id"`
	Summary      reconciliation.Summary            `json:"summary"`
	ComputedNet  decimal.Decimal                   `json:"computed_net"`
	Submission   *reconciliation.HandoffSubmission `json:"submission,omitempty"`
	Submitted    bool                              `json:"submitted"`
}

// BranchHandoffView aggregates handoff progress for one branch and date
type BranchHandoffView struct {
	BranchCode   string                `json:"branch_code"`
	BusinessDate time.Time             `json:"business_date"`
	Tellers      []TellerHandoffStatus `json:"tellers"`
	BranchNet    decimal.Decimal       `json:"branch_net"`
}

// ReconciliationService serves end-of-day aggregation and teller handoffs
type ReconciliationService interface {
	// Summary folds the day's transactions for the actor's scope.
	// Tellers see their own activity, branch managers their branch,
	// admins any branch or the whole day.
	Summary(ctx context.Context, businessDate time.Time, actor shared.Actor, branchCode string) (*SummaryView, error)

	// SubmitHandoff records a teller's declared net against the
	// computed net. Allowed only while the day is CLOSING or
	// RECONCILING; returns ErrDayNotClosing otherwise.
	SubmitHandoff(ctx context.Context, businessDate time.Time, actor shared.Actor, declaredNet decimal.Decimal, note string) (*reconciliation.HandoffSubmission, error)

	// BranchHandoffView reports per-teller handoff progress for a branch
	BranchHandoffView(ctx context.Context, businessDate time.Time, actor shared.Actor, branchCode string) (*BranchHandoffView, error)
}
