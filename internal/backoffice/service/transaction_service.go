package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/ledger"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/branchday-backoffice/internal/platform/persistence"
)

// maxSequenceRetries bounds retries of the atomic unit when two writers
// race for the same per-branch sequence number
const maxSequenceRetries = 3

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	db          persistence.TxBeginner
	dayRepo     daycycle.Repository
	accountRepo ledger.Repository
	txRepo      transaction.Repository
	recorder    *factRecorder
	logger      *slog.Logger
}

// NewTransactionService creates a new transaction engine service
func NewTransactionService(
	logger *slog.Logger,
	db persistence.TxBeginner,
	dayRepo daycycle.Repository,
	accountRepo ledger.Repository,
	txRepo transaction.Repository,
	outboxRepo audit.OutboxRepository,
) TransactionService {
	return &TransactionServiceImpl{
		db:          db,
		dayRepo:     dayRepo,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		recorder:    newFactRecorder(outboxRepo),
		logger:      logger,
	}
}

// CreateTransaction performs a deposit or withdrawal. The sequence
// number comes from a count of existing rows; the unique constraint on
// transaction_id catches a concurrent writer taking the same number,
// and the whole unit is retried with a fresh count.
func (s *TransactionServiceImpl) CreateTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, input CreateTransactionInput) (*transaction.Transaction, error) {
	day, err := s.dayRepo.GetOrCreate(ctx, businessDate)
	if err != nil {
		return nil, err
	}
	if day.State != daycycle.StateOpen {
		return nil, daycycle.ErrDayNotOpen{Current: day.State}
	}

	var created *transaction.Transaction
	for attempt := 0; attempt < maxSequenceRetries; attempt++ {
		created, err = s.tryCreateTransaction(ctx, businessDate, actor, input)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, transaction.ErrDuplicateTransactionID{}) {
			return nil, err
		}
		s.logger.Warn("Transaction id collision, retrying with fresh sequence",
			"account_key", input.AccountKey,
			"branch_code", input.BranchCode,
			"attempt", attempt+1,
		)
	}
	return nil, err
}

func (s *TransactionServiceImpl) tryCreateTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, input CreateTransactionInput) (*transaction.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accountRepo := s.accountRepo.WithTx(tx)
	txRepo := s.txRepo.WithTx(tx)

	acc, err := accountRepo.LockForUpdate(ctx, input.AccountKey, input.BranchCode, businessDate)
	if err != nil {
		return nil, err
	}

	if input.ExpectedVersion > 0 && acc.Version != input.ExpectedVersion {
		return nil, ledger.ErrVersionConflict{
			AccountKey: acc.AccountKey,
			Expected:   input.ExpectedVersion,
			Actual:     acc.Version,
		}
	}

	if input.Type == transaction.TypeWithdrawal {
		if acc.Restricted() || acc.HasLiens() {
			return nil, transaction.ErrWithdrawalBlocked{AccountKey: acc.AccountKey}
		}
		if acc.CurrentBalance.LessThan(input.Amount) {
			return nil, transaction.ErrInsufficientFunds{AccountKey: acc.AccountKey}
		}
	}

	count, err := txRepo.CountForBranchDate(ctx, input.BranchCode, businessDate)
	if err != nil {
		return nil, err
	}

	newBalance := acc.CurrentBalance.Add(input.Type.Delta(input.Amount))
	created := &transaction.Transaction{
		TransactionID: transaction.FormatTransactionID(input.BranchCode, businessDate, count+1),
		BusinessDate:  businessDate,
		BranchCode:    input.BranchCode,
		AccountKey:    input.AccountKey,
		Type:          input.Type,
		Amount:        input.Amount,
		BalanceBefore: acc.CurrentBalance,
		BalanceAfter:  newBalance,
		Status:        transaction.StatusCompleted,
		TellerUserID:  actor.UserID,
		ReferenceNote: input.ReferenceNote,
		CreatedAt:     time.Now().UTC(),
	}

	if err := txRepo.Create(ctx, created); err != nil {
		return nil, err
	}

	if err := accountRepo.UpdateBalance(ctx, acc.AccountKey, acc.BranchCode, businessDate, newBalance, acc.Version); err != nil {
		return nil, err
	}

	fact := audit.NewFact(audit.ActionTransactionCreate, audit.EntityTransaction,
		created.TransactionID, businessDate, input.BranchCode, actor,
		audit.TransactionCreatePayload{
			AccountKey:    acc.AccountKey,
			Type:          input.Type,
			Amount:        input.Amount,
			BalanceBefore: acc.CurrentBalance,
			BalanceAfter:  newBalance,
			VersionBefore: acc.Version,
			VersionAfter:  acc.Version + 1,
		})
	if err := s.recorder.RecordInTx(ctx, tx, fact); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction created",
		"transaction_id", created.TransactionID,
		"account_key", acc.AccountKey,
		"type", string(input.Type),
		"teller", actor.UserID,
	)

	return created, nil
}

// VoidTransaction records an equal-and-opposite reversal and flips the
// original to VOIDED. Only same-day transactions can be voided; history
// is never rewritten.
func (s *TransactionServiceImpl) VoidTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, transactionID string) (*VoidResult, error) {
	original, err := s.txRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !original.BusinessDate.Equal(businessDate) {
		return nil, transaction.ErrVoidOnlySameDay{TransactionID: transactionID}
	}
	if original.Status == transaction.StatusVoided {
		return nil, transaction.ErrAlreadyVoided{TransactionID: transactionID}
	}

	switch actor.Role {
	case shared.RoleTeller:
		if original.TellerUserID != actor.UserID || original.BranchCode != actor.BranchCode {
			return nil, transaction.ErrForbiddenVoid{TransactionID: transactionID}
		}
	case shared.RoleBranchManager:
		if original.BranchCode != actor.BranchCode {
			return nil, transaction.ErrForbiddenVoid{TransactionID: transactionID}
		}
	}

	day, err := s.dayRepo.GetOrCreate(ctx, businessDate)
	if err != nil {
		return nil, err
	}
	if day.State != daycycle.StateOpen {
		return nil, daycycle.ErrDayNotOpen{Current: day.State}
	}

	var result *VoidResult
	for attempt := 0; attempt < maxSequenceRetries; attempt++ {
		result, err = s.tryVoidTransaction(ctx, businessDate, actor, original)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, transaction.ErrDuplicateTransactionID{}) {
			return nil, err
		}
		s.logger.Warn("Reversal id collision, retrying with fresh sequence",
			"transaction_id", transactionID,
			"attempt", attempt+1,
		)
	}
	return nil, err
}

func (s *TransactionServiceImpl) tryVoidTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, original *transaction.Transaction) (*VoidResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accountRepo := s.accountRepo.WithTx(tx)
	txRepo := s.txRepo.WithTx(tx)

	acc, err := accountRepo.LockForUpdate(ctx, original.AccountKey, original.BranchCode, businessDate)
	if err != nil {
		return nil, err
	}

	// Re-read under the account lock; a concurrent void may have won
	current, err := txRepo.GetByTransactionID(ctx, original.TransactionID)
	if err != nil {
		return nil, err
	}
	if current.Status == transaction.StatusVoided {
		return nil, transaction.ErrAlreadyVoided{TransactionID: original.TransactionID}
	}

	reversalType := original.Type.Reverse()
	if reversalType == transaction.TypeWithdrawal && acc.CurrentBalance.LessThan(original.Amount) {
		return nil, transaction.ErrVoidInsufficientFunds{TransactionID: original.TransactionID}
	}

	count, err := txRepo.CountForBranchDate(ctx, original.BranchCode, businessDate)
	if err != nil {
		return nil, err
	}

	newBalance := acc.CurrentBalance.Add(reversalType.Delta(original.Amount))
	reversal := &transaction.Transaction{
		TransactionID: transaction.FormatTransactionID(original.BranchCode, businessDate, count+1),
		BusinessDate:  businessDate,
		BranchCode:    original.BranchCode,
		AccountKey:    original.AccountKey,
		Type:          reversalType,
		Amount:        original.Amount,
		BalanceBefore: acc.CurrentBalance,
		BalanceAfter:  newBalance,
		Status:        transaction.StatusCompleted,
		TellerUserID:  actor.UserID,
		ReferenceNote: transaction.VoidNote(original.TransactionID),
		CreatedAt:     time.Now().UTC(),
	}

	if err := txRepo.Create(ctx, reversal); err != nil {
		return nil, err
	}

	if err := txRepo.MarkVoided(ctx, original.TransactionID, reversal.TransactionID); err != nil {
		return nil, err
	}

	if err := accountRepo.UpdateBalance(ctx, acc.AccountKey, acc.BranchCode, businessDate, newBalance, acc.Version); err != nil {
		return nil, err
	}

	fact := audit.NewFact(audit.ActionTransactionVoid, audit.EntityTransaction,
		original.TransactionID, businessDate, original.BranchCode, actor,
		audit.TransactionVoidPayload{
			OriginalTransactionID: original.TransactionID,
			ReversalTransactionID: reversal.TransactionID,
			BalanceBefore:         acc.CurrentBalance,
			BalanceAfter:          newBalance,
		})
	if err := s.recorder.RecordInTx(ctx, tx, fact); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	voided := *original
	voided.Status = transaction.StatusVoided
	voided.VoidReference = reversal.TransactionID

	s.logger.Info("Transaction voided",
		"transaction_id", original.TransactionID,
		"reversal_id", reversal.TransactionID,
		"actor", actor.UserID,
	)

	return &VoidResult{Original: &voided, Reversal: reversal}, nil
}

// GetTransaction retrieves one transaction by its formatted id
func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	return s.txRepo.GetByTransactionID(ctx, transactionID)
}
