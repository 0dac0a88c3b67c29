package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/branchday-backoffice/internal/backoffice/middleware"
	"github.com/branchday-backoffice/internal/backoffice/service"
	"github.com/branchday-backoffice/internal/domain/ledger"
)

// SnapshotHandler handles HTTP requests for snapshot loads and ledger reads
type SnapshotHandler struct {
	snapshotService service.SnapshotService
	logger          *slog.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(logger *slog.Logger, snapshotService service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotService: snapshotService,
		logger:          logger,
	}
}

// Load applies one branch's account snapshot for the business date
func (h *SnapshotHandler) Load(c *gin.Context) {
	var req LoadSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rows := make([]ledger.SnapshotRow, 0, len(req.Rows))
	for i, raw := range req.Rows {
		row, err := parseSnapshotRow(raw)
		if err != nil {
			h.logger.Error("Invalid snapshot row", "index", i, "account_key", raw.AccountKey, "error", err)
			RespondBadRequest(c, "Invalid snapshot row for account "+raw.AccountKey+": "+err.Error())
			return
		}
		rows = append(rows, row)
	}

	businessDate, ok := requestBusinessDate(c)
	if !ok {
		RespondBadRequest(c, "Invalid business_date, expected YYYY-MM-DD")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	result, err := h.snapshotService.LoadSnapshot(c.Request.Context(), businessDate, req.BranchCode, rows, actor)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, SnapshotLoadResponse{
		BranchCode:          result.BranchCode,
		RowsLoaded:          result.RowsLoaded,
		BranchesLoaded:      result.BranchesLoaded,
		TotalAccountsLoaded: result.TotalAccountsLoaded,
	})
}

// GetAccount returns one ledger record with its recent transactions
func (h *SnapshotHandler) GetAccount(c *gin.Context) {
	accountKey := c.Param("accountKey")
	branchCode := c.Query("branch_code")
	if branchCode == "" {
		actor, ok := middleware.GetActor(c)
		if !ok {
			RespondUnauthorized(c, "")
			return
		}
		branchCode = actor.ScopeBranch("")
	}
	if branchCode == "" {
		RespondWithError(c, http.StatusBadRequest, "BRANCH_REQUIRED", "branch_code is required")
		return
	}

	businessDate, ok := requestBusinessDate(c)
	if !ok {
		RespondBadRequest(c, "Invalid business_date, expected YYYY-MM-DD")
		return
	}

	view, err := h.snapshotService.GetAccount(c.Request.Context(), businessDate, accountKey, branchCode)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	resp := AccountViewResponse{
		Account:      mapAccountToResponse(view.Account),
		Transactions: make([]TransactionResponse, 0, len(view.Transactions)),
	}
	for _, t := range view.Transactions {
		resp.Transactions = append(resp.Transactions, mapTransactionToResponse(t))
	}

	RespondOK(c, resp)
}

func parseSnapshotRow(raw SnapshotRowRequest) (ledger.SnapshotRow, error) {
	currentBalance, err := decimal.NewFromString(raw.CurrentBalance)
	if err != nil {
		return ledger.SnapshotRow{}, err
	}
	heldBalance := decimal.Zero
	if raw.HeldBalance != "" {
		if heldBalance, err = decimal.NewFromString(raw.HeldBalance); err != nil {
			return ledger.SnapshotRow{}, err
		}
	}
	liens := decimal.Zero
	if raw.Liens != "" {
		if liens, err = decimal.NewFromString(raw.Liens); err != nil {
			return ledger.SnapshotRow{}, err
		}
	}

	return ledger.SnapshotRow{
		AccountKey:            raw.AccountKey,
		FullAccountNumber:     raw.FullAccountNumber,
		AccountName:           raw.AccountName,
		CurrentBalance:        currentBalance,
		HeldBalance:           heldBalance,
		OperationRestrictions: raw.OperationRestrictions,
		Liens:                 liens,
		Markers:               raw.Markers,
	}, nil
}
