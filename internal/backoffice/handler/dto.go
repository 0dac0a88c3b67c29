package handler

import (
	"time"

	"github.com/branchday-backoffice/internal/backoffice/service"
	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/ledger"
	"github.com/branchday-backoffice/internal/domain/reconciliation"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
)

// TransitionRequest represents a request to move the business day
type TransitionRequest struct {
	Target string `json:"target" binding:"required,oneof=LOADING OPEN CLOSING RECONCILING CLOSED"`
}

// DayResponse represents the business day in API responses
type DayResponse struct {
	BusinessDate        string `json:"business_date"`
	State               string `json:"state"`
	BranchesLoaded      int    `json:"branches_loaded"`
	TotalAccountsLoaded int    `json:"total_accounts_loaded"`
	OpenedAt            string `json:"opened_at,omitempty"`
	OpenedBy            string `json:"opened_by,omitempty"`
	ClosedAt            string `json:"closed_at,omitempty"`
	ClosedBy            string `json:"closed_by,omitempty"`
}

// SnapshotRowRequest represents one account row in a snapshot upload
type SnapshotRowRequest struct {
	AccountKey            string `json:"account_key" binding:"required"`
	FullAccountNumber     string `json:"full_account_number" binding:"required"`
	AccountName           string `json:"account_name" binding:"required"`
	CurrentBalance        string `json:"current_balance" binding:"required"`
	HeldBalance           string `json:"held_balance"`
	OperationRestrictions string `json:"operation_restrictions"`
	Liens                 string `json:"liens"`
	Markers               string `json:"markers"`
}

// LoadSnapshotRequest represents a branch snapshot upload
type LoadSnapshotRequest struct {
	BranchCode string               `json:"branch_code" binding:"required"`
	Rows       []SnapshotRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// SnapshotLoadResponse represents the outcome of a snapshot upload
type SnapshotLoadResponse struct {
	BranchCode          string `json:"branch_code"`
	RowsLoaded          int    `json:"rows_loaded"`
	BranchesLoaded      int    `json:"branches_loaded"`
	TotalAccountsLoaded int    `json:"total_accounts_loaded"`
}

// AccountResponse represents a ledger record in API responses
type AccountResponse struct {
	AccountKey            string `json:"account_key"`
	BranchCode            string `json:"branch_code"`
	LoadedDate            string `json:"loaded_date"`
	FullAccountNumber     string `json:"full_account_number"`
	AccountName           string `json:"account_name"`
	CurrentBalance        string `json:"current_balance"`
	HeldBalance           string `json:"held_balance"`
	OpeningBalance        string `json:"opening_balance"`
	OperationRestrictions string `json:"operation_restrictions,omitempty"`
	Liens                 string `json:"liens"`
	Markers               string `json:"markers,omitempty"`
	Version               int    `json:"version"`
}

// AccountViewResponse represents a ledger record with recent activity
type AccountViewResponse struct {
	Account      AccountResponse       `json:"account"`
	Transactions []TransactionResponse `json:"transactions"`
}

// CreateTransactionRequest represents a deposit or withdrawal request
type CreateTransactionRequest struct {
	AccountKey      string `json:"account_key" binding:"required"`
	BranchCode      string `json:"branch_code"`
	Type            string `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL"`
	Amount          string `json:"amount" binding:"required"`
	ExpectedVersion int    `json:"expected_version"`
	ReferenceNote   string `json:"reference_note"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	BusinessDate  string `json:"business_date"`
	BranchCode    string `json:"branch_code"`
	AccountKey    string `json:"account_key"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Status        string `json:"status"`
	VoidReference string `json:"void_reference,omitempty"`
	TellerUserID  string `json:"teller_user_id"`
	ReferenceNote string `json:"reference_note,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// VoidResponse represents the outcome of a void operation
type VoidResponse struct {
	Original TransactionResponse `json:"original"`
	Reversal TransactionResponse `json:"reversal"`
}

// SummaryResponse represents a reconciliation summary in API responses
type SummaryResponse struct {
	TxCount        int    `json:"tx_count"`
	Deposits       string `json:"deposits"`
	Withdrawals    string `json:"withdrawals"`
	Net            string `json:"net"`
	VoidedCount    int    `json:"voided_count"`
	LastActivityAt string `json:"last_activity_at,omitempty"`
}

// SummaryViewResponse pairs a summary with the day state. Handoff is
// present only for tellers who already submitted for the date.
type SummaryViewResponse struct {
	Summary   SummaryResponse            `json:"summary"`
	DayState  string                     `json:"day_state"`
	CanSubmit bool                       `json:"can_submit"`
	Handoff   *HandoffSubmissionResponse `json:"handoff,omitempty"`
}

// SubmitHandoffRequest represents a teller's end-of-day declaration
type SubmitHandoffRequest struct {
	DeclaredNet string `json:"declared_net" binding:"required"`
	Note        string `json:"note"`
}

// HandoffSubmissionResponse represents a handoff submission in API responses
type HandoffSubmissionResponse struct {
	ID           string `json:"id"`
	TellerUserID string `json:"teller_user_id"`
	BranchCode   string `json:"branch_code"`
	BusinessDate string `json:"business_date"`
	DeclaredNet  string `json:"declared_net"`
	ComputedNet  string `json:"computed_net"`
	Discrepancy  string `json:"discrepancy"`
	Note         string `json:"note,omitempty"`
	SubmittedAt  string `json:"submitted_at"`
}

// TellerHandoffResponse represents one teller's line in the branch view
type TellerHandoffResponse struct {
	TellerUserID string                     `json:"teller_user_id"`
	Summary      SummaryResponse            `json:"summary"`
	ComputedNet  string                     `json:"computed_net"`
	Submission   *HandoffSubmissionResponse `json:"submission,omitempty"`
	Submitted    bool                       `json:"submitted"`
}

// BranchHandoffResponse represents branch-wide handoff progress
type BranchHandoffResponse struct {
	BranchCode   string                  `json:"branch_code"`
	BusinessDate string                  `json:"business_date"`
	Tellers      []TellerHandoffResponse `json:"tellers"`
	BranchNet    string                  `json:"branch_net"`
}

func mapDayToResponse(day *daycycle.Day) DayResponse {
	resp := DayResponse{
		BusinessDate:        shared.FormatBusinessDate(day.BusinessDate),
		State:               string(day.State),
		BranchesLoaded:      day.BranchesLoaded,
		TotalAccountsLoaded: day.TotalAccountsLoaded,
		OpenedBy:            day.OpenedBy,
		ClosedBy:            day.ClosedBy,
	}
	if day.OpenedAt != nil {
		resp.OpenedAt = day.OpenedAt.Format(time.RFC3339)
	}
	if day.ClosedAt != nil {
		resp.ClosedAt = day.ClosedAt.Format(time.RFC3339)
	}
	return resp
}

func mapAccountToResponse(acc *ledger.Account) AccountResponse {
	return AccountResponse{
		AccountKey:            acc.AccountKey,
		BranchCode:            acc.BranchCode,
		LoadedDate:            shared.FormatBusinessDate(acc.LoadedDate),
		FullAccountNumber:     acc.FullAccountNumber,
		AccountName:           acc.AccountName,
		CurrentBalance:        acc.CurrentBalance.StringFixed(2),
		HeldBalance:           acc.HeldBalance.StringFixed(2),
		OpeningBalance:        acc.OpeningBalance.StringFixed(2),
		OperationRestrictions: acc.OperationRestrictions,
		Liens:                 acc.Liens.StringFixed(2),
		Markers:               acc.Markers,
		Version:               acc.Version,
	}
}

func mapTransactionToResponse(t *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID,
		BusinessDate:  shared.FormatBusinessDate(t.BusinessDate),
		BranchCode:    t.BranchCode,
		AccountKey:    t.AccountKey,
		Type:          string(t.Type),
		Amount:        t.Amount.StringFixed(2),
		BalanceBefore: t.BalanceBefore.StringFixed(2),
		BalanceAfter:  t.BalanceAfter.StringFixed(2),
		Status:        string(t.Status),
		VoidReference: t.VoidReference,
		TellerUserID:  t.TellerUserID,
		ReferenceNote: t.ReferenceNote,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

func mapSummaryToResponse(s reconciliation.Summary) SummaryResponse {
	resp := SummaryResponse{
		TxCount:     s.TxCount,
		Deposits:    s.Deposits.StringFixed(2),
		Withdrawals: s.Withdrawals.StringFixed(2),
		Net:         s.Net().StringFixed(2),
		VoidedCount: s.VoidedCount,
	}
	if s.LastActivityAt != nil {
		resp.LastActivityAt = s.LastActivityAt.Format(time.RFC3339)
	}
	return resp
}

func mapSummaryViewToResponse(view *service.SummaryView) SummaryViewResponse {
	resp := SummaryViewResponse{
		Summary:   mapSummaryToResponse(view.Summary),
		DayState:  string(view.DayState),
		CanSubmit: view.CanSubmit,
	}
	if view.Handoff != nil {
		handoff := mapSubmissionToResponse(view.Handoff)
		resp.Handoff = &handoff
	}
	return resp
}

func mapSubmissionToResponse(sub *reconciliation.HandoffSubmission) HandoffSubmissionResponse {
	return HandoffSubmissionResponse{
		ID:           sub.ID.String(),
		TellerUserID: sub.TellerUserID,
		BranchCode:   sub.BranchCode,
		BusinessDate: shared.FormatBusinessDate(sub.BusinessDate),
		DeclaredNet:  sub.DeclaredNet.StringFixed(2),
		ComputedNet:  sub.ComputedNet.StringFixed(2),
		Discrepancy:  sub.Discrepancy.StringFixed(2),
		Note:         sub.Note,
		SubmittedAt:  sub.SubmittedAt.Format(time.RFC3339),
	}
}

func mapBranchHandoffToResponse(view *service.BranchHandoffView) BranchHandoffResponse {
	resp := BranchHandoffResponse{
		BranchCode:   view.BranchCode,
		BusinessDate: shared.FormatBusinessDate(view.BusinessDate),
		Tellers:      make([]TellerHandoffResponse, 0, len(view.Tellers)),
		BranchNet:    view.BranchNet.StringFixed(2),
	}
	for _, teller := range view.Tellers {
		line := TellerHandoffResponse{
			TellerUserID: teller.TellerUserID,
			Summary:      mapSummaryToResponse(teller.Summary),
			ComputedNet:  teller.ComputedNet.StringFixed(2),
			Submitted:    teller.Submitted,
		}
		if teller.Submission != nil {
			sub := mapSubmissionToResponse(teller.Submission)
			line.Submission = &sub
		}
		resp.Tellers = append(resp.Tellers, line)
	}
	return resp
}
