package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/platform/persistence"
)

// DayServiceImpl implements the DayService interface
type DayServiceImpl struct {
	db       persistence.TxBeginner
	dayRepo  daycycle.Repository
	recorder *factRecorder
	logger   *slog.Logger
}

// NewDayService creates a new day cycle service
func NewDayService(
	logger *slog.Logger,
	db persistence.TxBeginner,
	dayRepo daycycle.Repository,
	outboxRepo audit.OutboxRepository,
) DayService {
	return &DayServiceImpl{
		db:       db,
		dayRepo:  dayRepo,
		recorder: newFactRecorder(outboxRepo),
		logger:   logger,
	}
}

// CurrentDay returns the day record, creating it lazily in LOADING
func (s *DayServiceImpl) CurrentDay(ctx context.Context, businessDate time.Time) (*daycycle.Day, error) {
	return s.dayRepo.GetOrCreate(ctx, businessDate)
}

// Transition moves the day to the target state under a row lock so the
// guard check and the write are a single atomic unit
func (s *DayServiceImpl) Transition(ctx context.Context, businessDate time.Time, target daycycle.State, actor shared.Actor) (*daycycle.Day, error) {
	if _, err := s.dayRepo.GetOrCreate(ctx, businessDate); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	dayRepo := s.dayRepo.WithTx(tx)

	day, err := dayRepo.LockForUpdate(ctx, businessDate)
	if err != nil {
		return nil, err
	}

	if day.State == target {
		// Idempotent no-op; no state change, no fact
		return day, tx.Commit(ctx)
	}

	if !daycycle.CanTransition(day.State, target) {
		return nil, daycycle.ErrInvalidTransition{Current: day.State, Requested: target}
	}

	if day.State == daycycle.StateLoading && target == daycycle.StateOpen && !day.Loaded() {
		return nil, daycycle.ErrNotLoaded{}
	}

	previous := day.State
	now := time.Now().UTC()
	day.State = target
	day.UpdatedAt = now

	switch target {
	case daycycle.StateOpen:
		day.OpenedAt = &now
		day.OpenedBy = actor.UserID
	case daycycle.StateClosed:
		day.ClosedAt = &now
		day.ClosedBy = actor.UserID
	}

	if err := dayRepo.UpdateState(ctx, day); err != nil {
		return nil, err
	}

	fact := audit.NewFact(audit.ActionDayTransition, audit.EntityDayCycle,
		shared.FormatBusinessDate(businessDate), businessDate, "", actor,
		audit.DayTransitionPayload{FromState: previous, ToState: target})
	if err := s.recorder.RecordInTx(ctx, tx, fact); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Business day transitioned",
		"business_date", shared.FormatBusinessDate(businessDate),
		"from", string(previous),
		"to", string(target),
		"actor", actor.UserID,
	)

	return day, nil
}
