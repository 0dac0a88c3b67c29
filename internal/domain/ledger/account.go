package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account is the per-account, per-business-day ledger record produced
// by the daily snapshot load. Its balance is only mutated through the
// transaction engine; version increases by exactly 1 per successful
// mutation.
type Account struct {
	AccountKey            string          `json:"account_key"`
	BranchCode            string          `json:"branch_code"`
	LoadedDate            time.Time       `json:"loaded_date"`
	FullAccountNumber     string          `json:"full_account_number"`
	AccountName           string          `json:"account_name"`
	CurrentBalance        decimal.Decimal `json:"current_balance"`
	HeldBalance           decimal.Decimal `json:"held_balance"`
	OpeningBalance        decimal.Decimal `json:"opening_balance"`
	OperationRestrictions string          `json:"operation_restrictions"`
	Liens                 decimal.Decimal `json:"liens"`
	Markers               string          `json:"markers"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Restricted reports whether the account carries an operation
// restriction marker that blocks withdrawals
func (a *Account) Restricted() bool {
	return strings.TrimSpace(a.OperationRestrictions) != ""
}

// HasLiens reports whether any lien amount is registered on the account
func (a *Account) HasLiens() bool {
	return a.Liens.IsPositive()
}

// SnapshotRow is one validated account row from the import
// collaborator. Parsing and field validation happen upstream; the
// engine only applies it.
type SnapshotRow struct {
	AccountKey            string          `json:"account_key"`
	FullAccountNumber     string          `json:"full_account_number"`
	AccountName           string          `json:"account_name"`
	CurrentBalance        decimal.Decimal `json:"current_balance"`
	HeldBalance           decimal.Decimal `json:"held_balance"`
	OperationRestrictions string          `json:"operation_restrictions"`
	Liens                 decimal.Decimal `json:"liens"`
	Markers               string          `json:"markers"`
}

// NewAccountFromSnapshot builds the ledger record for a snapshot row.
// Opening balance starts at the incoming current balance and version at
// 1; a re-upload of the same key fully overwrites the prior record with
// the same initialization.
func NewAccountFromSnapshot(row SnapshotRow, branchCode string, loadedDate time.Time) *Account {
	now := time.Now().UTC()
	return &Account{
		AccountKey:            row.AccountKey,
		BranchCode:            branchCode,
		LoadedDate:            loadedDate,
		FullAccountNumber:     row.FullAccountNumber,
		AccountName:           row.AccountName,
		CurrentBalance:        row.CurrentBalance,
		HeldBalance:           row.HeldBalance,
		OpeningBalance:        row.CurrentBalance,
		OperationRestrictions: row.OperationRestrictions,
		Liens:                 row.Liens,
		Markers:               row.Markers,
		Version:               1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// ErrAccountNotFound indicates no ledger record for the composite key
type ErrAccountNotFound struct {
	AccountKey string
	BranchCode string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountKey + " (branch " + e.BranchCode + ")"
}

// Is matches any ErrAccountNotFound when the target carries an empty key
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountKey == "" {
		return true
	}
	return e.AccountKey == t.AccountKey && e.BranchCode == t.BranchCode
}

// ErrVersionConflict indicates an optimistic-lock failure; the caller
// may refetch and retry
type ErrVersionConflict struct {
	AccountKey string
	Expected   int
	Actual     int
}

func (e ErrVersionConflict) Error() string {
	return "version conflict on account " + e.AccountKey
}
