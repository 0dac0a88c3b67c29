package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/ledger"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/branchday-backoffice/internal/platform/persistence"
)

// recentTransactionLimit caps the account view's activity list
const recentTransactionLimit = 20

// SnapshotServiceImpl implements the SnapshotService interface
type SnapshotServiceImpl struct {
	db          persistence.TxBeginner
	dayRepo     daycycle.Repository
	accountRepo ledger.Repository
	txRepo      transaction.Repository
	recorder    *factRecorder
	logger      *slog.Logger
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(
	logger *slog.Logger,
	db persistence.TxBeginner,
	dayRepo daycycle.Repository,
	accountRepo ledger.Repository,
	txRepo transaction.Repository,
	outboxRepo audit.OutboxRepository,
) SnapshotService {
	return &SnapshotServiceImpl{
		db:          db,
		dayRepo:     dayRepo,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		recorder:    newFactRecorder(outboxRepo),
		logger:      logger,
	}
}

// LoadSnapshot applies one branch's snapshot rows. The whole load, the
// recomputed counters and the audit fact commit as one unit; a
// re-upload of the same branch fully overwrites its prior rows.
func (s *SnapshotServiceImpl) LoadSnapshot(ctx context.Context, businessDate time.Time, branchCode string, rows []ledger.SnapshotRow, actor shared.Actor) (*SnapshotLoadResult, error) {
	if _, err := s.dayRepo.GetOrCreate(ctx, businessDate); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	dayRepo := s.dayRepo.WithTx(tx)
	accountRepo := s.accountRepo.WithTx(tx)

	day, err := dayRepo.LockForUpdate(ctx, businessDate)
	if err != nil {
		return nil, err
	}

	switch day.State {
	case daycycle.StateLoading:
	case daycycle.StateClosed:
		// First load of a fresh day forces the LOADING state
		day.State = daycycle.StateLoading
		if err := dayRepo.UpdateState(ctx, day); err != nil {
			return nil, err
		}
	default:
		return nil, daycycle.ErrDayNotLoadable{Current: day.State}
	}

	for _, row := range rows {
		acc := ledger.NewAccountFromSnapshot(row, branchCode, businessDate)
		if err := accountRepo.Upsert(ctx, acc); err != nil {
			return nil, err
		}
	}

	totalAccounts, err := accountRepo.CountForDate(ctx, businessDate)
	if err != nil {
		return nil, err
	}
	branches, err := accountRepo.CountDistinctBranches(ctx, businessDate)
	if err != nil {
		return nil, err
	}

	if err := dayRepo.UpdateLoadCounts(ctx, businessDate, branches, totalAccounts); err != nil {
		return nil, err
	}

	fact := audit.NewFact(audit.ActionSnapshotLoad, audit.EntityDayCycle,
		shared.FormatBusinessDate(businessDate), businessDate, branchCode, actor,
		audit.SnapshotLoadPayload{
			BranchCode:          branchCode,
			RowsLoaded:          len(rows),
			BranchesLoaded:      branches,
			TotalAccountsLoaded: totalAccounts,
		})
	if err := s.recorder.RecordInTx(ctx, tx, fact); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Snapshot loaded",
		"business_date", shared.FormatBusinessDate(businessDate),
		"branch_code", branchCode,
		"rows", len(rows),
		"total_accounts", totalAccounts,
	)

	return &SnapshotLoadResult{
		BranchCode:          branchCode,
		RowsLoaded:          len(rows),
		BranchesLoaded:      branches,
		TotalAccountsLoaded: totalAccounts,
	}, nil
}

// GetAccount returns the ledger record and its recent activity
func (s *SnapshotServiceImpl) GetAccount(ctx context.Context, businessDate time.Time, accountKey, branchCode string) (*AccountView, error) {
	acc, err := s.accountRepo.GetByKey(ctx, accountKey, branchCode, businessDate)
	if err != nil {
		return nil, err
	}

	txs, err := s.txRepo.ListForAccount(ctx, accountKey, branchCode, businessDate, recentTransactionLimit)
	if err != nil {
		return nil, err
	}

	return &AccountView{Account: acc, Transactions: txs}, nil
}
