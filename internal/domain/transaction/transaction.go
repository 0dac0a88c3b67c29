package transaction

import (
	"fmt"
	"time"

	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Type defines the monetary transaction operations
type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
)

// ParseType maps a raw string to a known Type, returning false for anything else
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeDeposit, TypeWithdrawal:
		return Type(raw), true
	}
	return "", false
}

// Reverse returns the equal-and-opposite type used when voiding
func (t Type) Reverse() Type {
	if t == TypeDeposit {
		return TypeWithdrawal
	}
	return TypeDeposit
}

// Delta returns the signed balance impact of an amount under this type
func (t Type) Delta(amount decimal.Decimal) decimal.Decimal {
	if t == TypeDeposit {
		return amount
	}
	return amount.Neg()
}

// Status defines transaction record states. Rows are append-only; the
// status flip to VOIDED is the sole permitted edit after creation.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusVoided    Status = "VOIDED"
)

// Transaction is one ledger mutation recorded against an account for a
// business date. balanceAfter = balanceBefore ± amount exactly.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	BusinessDate  time.Time       `json:"business_date"`
	BranchCode    string          `json:"branch_code"`
	AccountKey    string          `json:"account_key"`
	Type          Type            `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Status        Status          `json:"status"`
	VoidReference string          `json:"void_reference,omitempty"`
	TellerUserID  string          `json:"teller_user_id"`
	ReferenceNote string          `json:"reference_note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FormatTransactionID renders the deterministic per-branch, per-day
// sequential id: TXN-<branch>-<yyyymmdd>-<6-digit-seq>
func FormatTransactionID(branchCode string, businessDate time.Time, seq int) string {
	return fmt.Sprintf("TXN-%s-%s-%06d", branchCode, shared.CompactBusinessDate(businessDate), seq)
}

// VoidNote is the auto-tag placed on a reversal's reference note
func VoidNote(originalID string) string {
	return "VOID_OF:" + originalID
}

// ErrTransactionNotFound indicates a missing transaction row
type ErrTransactionNotFound struct {
	TransactionID string
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID
}

// Is matches any ErrTransactionNotFound when the target carries an empty id
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateTransactionID indicates a sequence collision under
// concurrent writers; the atomic unit is retried with a fresh count
type ErrDuplicateTransactionID struct {
	TransactionID string
}

func (e ErrDuplicateTransactionID) Error() string {
	return "duplicate transaction id: " + e.TransactionID
}

// Is matches any ErrDuplicateTransactionID when the target carries an empty id
func (e ErrDuplicateTransactionID) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransactionID)
	if !ok {
		return false
	}
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrInsufficientFunds indicates a withdrawal larger than the current balance
type ErrInsufficientFunds struct {
	AccountKey string
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient funds on account " + e.AccountKey
}

// ErrWithdrawalBlocked indicates a withdrawal against a restricted or liened account
type ErrWithdrawalBlocked struct {
	AccountKey string
}

func (e ErrWithdrawalBlocked) Error() string {
	return "withdrawals blocked on account " + e.AccountKey
}

// ErrAlreadyVoided indicates a void attempted on an already-voided transaction
type ErrAlreadyVoided struct {
	TransactionID string
}

func (e ErrAlreadyVoided) Error() string {
	return "transaction already voided: " + e.TransactionID
}

// ErrVoidOnlySameDay indicates a void attempted across a day boundary
type ErrVoidOnlySameDay struct {
	TransactionID string
}

func (e ErrVoidOnlySameDay) Error() string {
	return "transaction can only be voided on its business date: " + e.TransactionID
}

// ErrForbiddenVoid indicates the actor may not void this transaction
type ErrForbiddenVoid struct {
	TransactionID string
}

func (e ErrForbiddenVoid) Error() string {
	return "actor not permitted to void transaction " + e.TransactionID
}

// ErrVoidInsufficientFunds indicates the reversal would drive the balance negative
type ErrVoidInsufficientFunds struct {
	TransactionID string
}

func (e ErrVoidInsufficientFunds) Error() string {
	return "voiding transaction " + e.TransactionID + " would overdraw the account"
}
