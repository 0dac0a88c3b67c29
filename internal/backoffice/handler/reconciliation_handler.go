package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/branchday-backoffice/internal/backoffice/middleware"
	"github.com/branchday-backoffice/internal/backoffice/service"
)

// ReconciliationHandler handles HTTP requests for end-of-day reconciliation
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// Summary returns the day's aggregated activity for the actor's scope
func (h *ReconciliationHandler) Summary(c *gin.Context) {
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

	view, err := h.reconciliationService.Summary(c.Request.Context(), businessDate, actor, c.Query("branch_code"))
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapSummaryViewToResponse(view))
}

// SubmitHandoff records a teller's declared net for the day
func (h *ReconciliationHandler) SubmitHandoff(c *gin.Context) {
	var req SubmitHandoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	declaredNet, err := decimal.NewFromString(req.DeclaredNet)
	if err != nil {
		RespondBadRequest(c, "Declared net must be a decimal number")
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

	submission, err := h.reconciliationService.SubmitHandoff(c.Request.Context(), businessDate, actor, declaredNet, req.Note)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapSubmissionToResponse(submission))
}

// BranchHandoff reports per-teller handoff progress for a branch
func (h *ReconciliationHandler) BranchHandoff(c *gin.Context) {
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

	view, err := h.reconciliationService.BranchHandoffView(c.Request.Context(), businessDate, actor, c.Query("branch_code"))
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapBranchHandoffToResponse(view))
}
