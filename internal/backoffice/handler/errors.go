package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/ledger"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
)

// respondDomainError translates engine errors into HTTP error codes.
// Guard violations surface as 409 so clients can distinguish a state
// conflict from bad input; unknown errors fall through to 500.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		invalidTransition daycycle.ErrInvalidTransition
		notLoaded         daycycle.ErrNotLoaded
		notLoadable       daycycle.ErrDayNotLoadable
		notOpen           daycycle.ErrDayNotOpen
		notClosing        daycycle.ErrDayNotClosing
		versionConflict   ledger.ErrVersionConflict
		accountNotFound   ledger.ErrAccountNotFound
		txNotFound        transaction.ErrTransactionNotFound
		insufficient      transaction.ErrInsufficientFunds
		blocked           transaction.ErrWithdrawalBlocked
		alreadyVoided     transaction.ErrAlreadyVoided
		onlySameDay       transaction.ErrVoidOnlySameDay
		forbiddenVoid     transaction.ErrForbiddenVoid
		voidInsufficient  transaction.ErrVoidInsufficientFunds
		branchRequired    shared.ErrBranchRequired
	)

	switch {
	case errors.As(err, &invalidTransition):
		RespondConflict(c, "INVALID_DAY_TRANSITION", err.Error())
	case errors.As(err, &notLoaded):
		RespondConflict(c, "NO_SNAPSHOT_LOADED", err.Error())
	case errors.As(err, &notLoadable):
		RespondConflict(c, "DAY_NOT_LOADABLE", err.Error())
	case errors.As(err, &notOpen):
		RespondConflict(c, "DAY_NOT_OPEN", err.Error())
	case errors.As(err, &notClosing):
		RespondConflict(c, "DAY_NOT_CLOSING", err.Error())
	case errors.As(err, &versionConflict):
		RespondConflict(c, "VERSION_CONFLICT", err.Error())
	case errors.As(err, &blocked):
		RespondConflict(c, "WITHDRAWAL_BLOCKED", err.Error())
	case errors.As(err, &insufficient):
		RespondConflict(c, "INSUFFICIENT_FUNDS", err.Error())
	case errors.As(err, &voidInsufficient):
		RespondConflict(c, "VOID_INSUFFICIENT_FUNDS", err.Error())
	case errors.As(err, &alreadyVoided):
		RespondConflict(c, "ALREADY_VOIDED", err.Error())
	case errors.As(err, &onlySameDay):
		RespondConflict(c, "VOID_ONLY_SAME_DAY", err.Error())
	case errors.As(err, &forbiddenVoid):
		RespondConflict(c, "FORBIDDEN_VOID", err.Error())
	case errors.As(err, &accountNotFound):
		RespondNotFound(c, "ACCOUNT_NOT_FOUND", err.Error())
	case errors.As(err, &txNotFound):
		RespondNotFound(c, "TRANSACTION_NOT_FOUND", err.Error())
	case errors.As(err, &branchRequired):
		RespondWithError(c, http.StatusBadRequest, "BRANCH_REQUIRED", err.Error())
	default:
		logger.Error("Unhandled service error", "error", err)
		RespondInternalError(c)
	}
}
