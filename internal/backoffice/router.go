package backoffice

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/branchday-backoffice/internal/backoffice/handler"
	"github.com/branchday-backoffice/internal/backoffice/middleware"
	"github.com/branchday-backoffice/internal/domain/shared"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	dayHandler *handler.DayHandler,
	snapshotHandler *handler.SnapshotHandler,
	transactionHandler *handler.TransactionHandler,
	reconciliationHandler *handler.ReconciliationHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints; all require a caller identity
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Identity())
	{
		// Business-day state machine
		day := v1.Group("/day")
		{
			day.GET("/current", dayHandler.Current)
			day.POST("/transition", middleware.RequireRoles(shared.RoleAdmin), dayHandler.Transition)
		}

		// Snapshot loads and ledger reads
		v1.POST("/snapshot/load", middleware.RequireRoles(shared.RoleAdmin), snapshotHandler.Load)
		v1.GET("/accounts/:accountKey", snapshotHandler.GetAccount)

		// Transaction operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("/:id", transactionHandler.GetByID)
			transactions.POST("/:id/void", transactionHandler.Void)
		}

		// End-of-day reconciliation
		reconciliation := v1.Group("/reconciliation")
		{
			reconciliation.GET("/summary", reconciliationHandler.Summary)
			reconciliation.POST("/handoff", middleware.RequireRoles(shared.RoleTeller), reconciliationHandler.SubmitHandoff)
			reconciliation.GET("/branch-handoff", middleware.RequireRoles(shared.RoleAdmin, shared.RoleBranchManager), reconciliationHandler.BranchHandoff)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
