package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/branchday-backoffice/internal/backoffice/middleware"
	"github.com/branchday-backoffice/internal/backoffice/service"
	"github.com/branchday-backoffice/internal/domain/daycycle"
)

// DayHandler handles HTTP requests for the business-day state machine
type DayHandler struct {
	dayService service.DayService
	logger     *slog.Logger
}

// NewDayHandler creates a new day cycle handler
func NewDayHandler(logger *slog.Logger, dayService service.DayService) *DayHandler {
	return &DayHandler{
		dayService: dayService,
		logger:     logger,
	}
}

// Current returns the business day record, creating it on first touch
func (h *DayHandler) Current(c *gin.Context) {
	businessDate, ok := requestBusinessDate(c)
	if !ok {
		RespondBadRequest(c, "Invalid business_date, expected YYYY-MM-DD")
		return
	}

	day, err := h.dayService.CurrentDay(c.Request.Context(), businessDate)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapDayToResponse(day))
}

// Transition moves the business day to the requested state
func (h *DayHandler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	target, ok := daycycle.ParseState(req.Target)
	if !ok {
		RespondBadRequest(c, "Invalid target state")
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

	day, err := h.dayService.Transition(c.Request.Context(), businessDate, target, actor)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapDayToResponse(day))
}
