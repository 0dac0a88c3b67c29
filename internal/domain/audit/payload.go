package audit

import (
	"encoding/json"

	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Payload is one variant of the audit fact payload union
type Payload interface {
	Kind() string
}

const (
	kindDayTransition     = "day_transition"
	kindSnapshotLoad      = "snapshot_load"
	kindTransactionCreate = "transaction_create"
	kindTransactionVoid   = "transaction_void"
	kindHandoffSubmit     = "handoff_submit"
	kindGeneric           = "generic"
)

// DayTransitionPayload records a state-machine edge
type DayTransitionPayload struct {
	FromState daycycle.State `json:"from_state"`
	ToState   daycycle.State `json:"to_state"`
}

func (DayTransitionPayload) Kind() string { return kindDayTransition }

// SnapshotLoadPayload records one branch snapshot application and the
// recomputed day counters
type SnapshotLoadPayload struct {
	BranchCode          string `json:"branch_code"`
	RowsLoaded          int    `json:"rows_loaded"`
	BranchesLoaded      int    `json:"branches_loaded"`
	TotalAccountsLoaded int    `json:"total_accounts_loaded"`
}

func (SnapshotLoadPayload) Kind() string { return kindSnapshotLoad }

// TransactionCreatePayload records a ledger mutation with its
// before/after balance and version
type TransactionCreatePayload struct {
	AccountKey    string           `json:"account_key"`
	Type          transaction.Type `json:"type"`
	Amount        decimal.Decimal  `json:"amount"`
	BalanceBefore decimal.Decimal  `json:"balance_before"`
	BalanceAfter  decimal.Decimal  `json:"balance_after"`
	VersionBefore int              `json:"version_before"`
	VersionAfter  int              `json:"version_after"`
}

func (TransactionCreatePayload) Kind() string { return kindTransactionCreate }

// TransactionVoidPayload records a void and its reversal
type TransactionVoidPayload struct {
	OriginalTransactionID string          `json:"original_transaction_id"`
	ReversalTransactionID string          `json:"reversal_transaction_id"`
	BalanceBefore         decimal.Decimal `json:"balance_before"`
	BalanceAfter          decimal.Decimal `json:"balance_after"`
}

func (TransactionVoidPayload) Kind() string { return kindTransactionVoid }

// HandoffSubmitPayload records a teller's handoff declaration against
// the computed totals at submission time
type HandoffSubmitPayload struct {
	DeclaredNet decimal.Decimal `json:"declared_net"`
	ComputedNet decimal.Decimal `json:"computed_net"`
	Discrepancy decimal.Decimal `json:"discrepancy"`
	TxCount     int             `json:"tx_count"`
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	VoidedCount int             `json:"voided_count"`
	Note        string          `json:"note,omitempty"`
}

func (HandoffSubmitPayload) Kind() string { return kindHandoffSubmit }

// GenericPayload is the forward-compatibility fallback for payload
// kinds this build does not know
type GenericPayload map[string]interface{}

func (GenericPayload) Kind() string { return kindGeneric }

// decodePayload selects the variant for a kind discriminator
func decodePayload(kind string, data json.RawMessage) (Payload, error) {
	switch kind {
	case kindDayTransition:
		var p DayTransitionPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case kindSnapshotLoad:
		var p SnapshotLoadPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case kindTransactionCreate:
		var p TransactionCreatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case kindTransactionVoid:
		var p TransactionVoidPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case kindHandoffSubmit:
		var p HandoffSubmitPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		var p GenericPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
}
