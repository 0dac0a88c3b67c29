package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/reconciliation"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/branchday-backoffice/internal/platform/persistence"
)

// ReconciliationServiceImpl implements the ReconciliationService interface
type ReconciliationServiceImpl struct {
	db          persistence.TxBeginner
	dayRepo     daycycle.Repository
	txRepo      transaction.Repository
	handoffRepo reconciliation.HandoffRepository
	recorder    *factRecorder
	logger      *slog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	logger *slog.Logger,
	db persistence.TxBeginner,
	dayRepo daycycle.Repository,
	txRepo transaction.Repository,
	handoffRepo reconciliation.HandoffRepository,
	outboxRepo audit.OutboxRepository,
) ReconciliationService {
	return &ReconciliationServiceImpl{
		db:          db,
		dayRepo:     dayRepo,
		txRepo:      txRepo,
		handoffRepo: handoffRepo,
		recorder:    newFactRecorder(outboxRepo),
		logger:      logger,
	}
}

// Summary folds the day's transactions for the actor's scope
func (s *ReconciliationServiceImpl) Summary(ctx context.Context, businessDate time.Time, actor shared.Actor, branchCode string) (*SummaryView, error) {
	day, err := s.dayRepo.GetOrCreate(ctx, businessDate)
	if err != nil {
		return nil, err
	}

	filter := transaction.Filter{BranchCode: actor.ScopeBranch(branchCode)}
	if actor.Role == shared.RoleTeller {
		filter.TellerUserID = actor.UserID
	}

	txs, err := s.txRepo.ListForDate(ctx, businessDate, filter)
	if err != nil {
		return nil, err
	}

	view := &SummaryView{
		Summary:  reconciliation.Summarize(txs),
		DayState: day.State,
	}

	// Only tellers submit handoffs, so only they see a submit window
	// and their own latest submission.
	if actor.Role == shared.RoleTeller {
		view.CanSubmit = day.State == daycycle.StateClosing || day.State == daycycle.StateReconciling
		view.Handoff, err = s.handoffRepo.LatestForTeller(ctx, actor.UserID, businessDate)
		if err != nil {
			return nil, err
		}
	}

	return view, nil
}

// SubmitHandoff records a teller's declared net against the computed
// net. The computed figure is snapshotted at submission time; later
// activity does not rewrite it.
func (s *ReconciliationServiceImpl) SubmitHandoff(ctx context.Context, businessDate time.Time, actor shared.Actor, declaredNet decimal.Decimal, note string) (*reconciliation.HandoffSubmission, error) {
	day, err := s.dayRepo.GetOrCreate(ctx, businessDate)
	if err != nil {
		return nil, err
	}
	if day.State != daycycle.StateClosing && day.State != daycycle.StateReconciling {
		return nil, daycycle.ErrDayNotClosing{Current: day.State}
	}

	txs, err := s.txRepo.ListForDate(ctx, businessDate, transaction.Filter{
		BranchCode:   actor.BranchCode,
		TellerUserID: actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	summary := reconciliation.Summarize(txs)
	computedNet := summary.Net()

	submission := reconciliation.NewHandoffSubmission(actor.UserID, actor.BranchCode, businessDate, declaredNet, computedNet, note)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.handoffRepo.WithTx(tx).Create(ctx, submission); err != nil {
		return nil, err
	}

	fact := audit.NewFact(audit.ActionHandoffSubmit, audit.EntityDayCycle,
		shared.FormatBusinessDate(businessDate), businessDate, actor.BranchCode, actor,
		audit.HandoffSubmitPayload{
			DeclaredNet: submission.DeclaredNet,
			ComputedNet: submission.ComputedNet,
			Discrepancy: submission.Discrepancy,
			TxCount:     summary.TxCount,
			Deposits:    summary.Deposits,
			Withdrawals: summary.Withdrawals,
			VoidedCount: summary.VoidedCount,
			Note:        note,
		})
	if err := s.recorder.RecordInTx(ctx, tx, fact); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Teller handoff submitted",
		"teller", actor.UserID,
		"branch_code", actor.BranchCode,
		"declared_net", submission.DeclaredNet.String(),
		"discrepancy", submission.Discrepancy.String(),
	)

	return submission, nil
}

// BranchHandoffView reports per-teller handoff progress for a branch.
// Tellers appear if they transacted on the date or submitted a
// handoff, whichever came first.
func (s *ReconciliationServiceImpl) BranchHandoffView(ctx context.Context, businessDate time.Time, actor shared.Actor, branchCode string) (*BranchHandoffView, error) {
	branch := actor.ScopeBranch(branchCode)
	if branch == "" {
		return nil, shared.ErrBranchRequired{}
	}

	txs, err := s.txRepo.ListForDate(ctx, businessDate, transaction.Filter{BranchCode: branch})
	if err != nil {
		return nil, err
	}

	submissions, err := s.handoffRepo.LatestPerTeller(ctx, branch, businessDate)
	if err != nil {
		return nil, err
	}

	byTeller := make(map[string][]*transaction.Transaction)
	for _, t := range txs {
		byTeller[t.TellerUserID] = append(byTeller[t.TellerUserID], t)
	}

	submissionByTeller := make(map[string]*reconciliation.HandoffSubmission, len(submissions))
	tellers := make([]string, 0, len(byTeller))
	for teller := range byTeller {
		tellers = append(tellers, teller)
	}
	for _, sub := range submissions {
		submissionByTeller[sub.TellerUserID] = sub
		if _, seen := byTeller[sub.TellerUserID]; !seen {
			tellers = append(tellers, sub.TellerUserID)
		}
	}
	sort.Strings(tellers)

	view := &BranchHandoffView{
		BranchCode:   branch,
		BusinessDate: businessDate,
		Tellers:      make([]TellerHandoffStatus, 0, len(tellers)),
		BranchNet:    reconciliation.Summarize(txs).Net(),
	}
	for _, teller := range tellers {
		summary := reconciliation.Summarize(byTeller[teller])
		sub := submissionByTeller[teller]
		view.Tellers = append(view.Tellers, TellerHandoffStatus{
			TellerUserID: teller,
			Summary:      summary,
			ComputedNet:  summary.Net(),
			Submission:   sub,
			Submitted:    sub != nil,
		})
	}

	return view, nil
}
