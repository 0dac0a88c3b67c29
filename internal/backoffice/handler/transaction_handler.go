package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/branchday-backoffice/internal/backoffice/middleware"
	"github.com/branchday-backoffice/internal/backoffice/service"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
)

// TransactionHandler handles HTTP requests for ledger mutations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create performs a deposit or withdrawal
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txType, ok := transaction.ParseType(req.Type)
	if !ok {
		RespondBadRequest(c, "Invalid transaction type")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		RespondBadRequest(c, "Amount must be a positive decimal number")
		return
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

	branchCode := actor.ScopeBranch(req.BranchCode)
	if actor.Role == shared.RoleTeller && req.BranchCode != "" && req.BranchCode != actor.BranchCode {
		RespondForbidden(c, "Tellers may only transact in their own branch")
		return
	}
	if branchCode == "" {
		respondDomainError(c, h.logger, shared.ErrBranchRequired{})
		return
	}

	created, err := h.transactionService.CreateTransaction(c.Request.Context(), businessDate, actor, service.CreateTransactionInput{
		AccountKey:      req.AccountKey,
		BranchCode:      branchCode,
		Type:            txType,
		Amount:          amount,
		ExpectedVersion: req.ExpectedVersion,
		ReferenceNote:   req.ReferenceNote,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(created))
}

// GetByID retrieves a transaction by its formatted id
func (h *TransactionHandler) GetByID(c *gin.Context) {
	transactionID := c.Param("id")

	entry, err := h.transactionService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(entry))
}

// Void reverses a same-day transaction
func (h *TransactionHandler) Void(c *gin.Context) {
	transactionID := c.Param("id")

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

	result, err := h.transactionService.VoidTransaction(c.Request.Context(), businessDate, actor, transactionID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, VoidResponse{
		Original: mapTransactionToResponse(result.Original),
		Reversal: mapTransactionToResponse(result.Reversal),
	})
}
