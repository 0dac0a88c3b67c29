package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/domain/daycycle"
	"github.com/branchday-backoffice/internal/domain/ledger"
	"github.com/branchday-backoffice/internal/domain/reconciliation"
	"github.com/branchday-backoffice/internal/domain/transaction"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func testBusinessDate() time.Time {
	return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
}

type MockDayRepository struct {
	mock.Mock
}

func (m *MockDayRepository) GetOrCreate(ctx context.Context, businessDate time.Time) (*daycycle.Day, error) {
	args := m.Called(ctx, businessDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daycycle.Day), args.Error(1)
}

func (m *MockDayRepository) LockForUpdate(ctx context.Context, businessDate time.Time) (*daycycle.Day, error) {
	args := m.Called(ctx, businessDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daycycle.Day), args.Error(1)
}

func (m *MockDayRepository) UpdateState(ctx context.Context, day *daycycle.Day) error {
	args := m.Called(ctx, day)
	return args.Error(0)
}

func (m *MockDayRepository) UpdateLoadCounts(ctx context.Context, businessDate time.Time, branchesLoaded, totalAccountsLoaded int) error {
	args := m.Called(ctx, businessDate, branchesLoaded, totalAccountsLoaded)
	return args.Error(0)
}

func (m *MockDayRepository) WithTx(tx pgx.Tx) daycycle.Repository {
	m.Called(tx)
	return m
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Upsert(ctx context.Context, account *ledger.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByKey(ctx context.Context, accountKey, branchCode string, loadedDate time.Time) (*ledger.Account, error) {
	args := m.Called(ctx, accountKey, branchCode, loadedDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockLedgerRepository) LockForUpdate(ctx context.Context, accountKey, branchCode string, loadedDate time.Time) (*ledger.Account, error) {
	args := m.Called(ctx, accountKey, branchCode, loadedDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockLedgerRepository) UpdateBalance(ctx context.Context, accountKey, branchCode string, loadedDate time.Time, newBalance decimal.Decimal, version int) error {
	args := m.Called(ctx, accountKey, branchCode, loadedDate, newBalance, version)
	return args.Error(0)
}

func (m *MockLedgerRepository) CountForDate(ctx context.Context, loadedDate time.Time) (int, error) {
	args := m.Called(ctx, loadedDate)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepository) CountDistinctBranches(ctx context.Context, loadedDate time.Time) (int, error) {
	args := m.Called(ctx, loadedDate)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	m.Called(tx)
	return m
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountForBranchDate(ctx context.Context, branchCode string, businessDate time.Time) (int, error) {
	args := m.Called(ctx, branchCode, businessDate)
	return args.Int(0), args.Error(1)
}

func (m *MockTransactionRepository) ListForDate(ctx context.Context, businessDate time.Time, filter transaction.Filter) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, businessDate, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListForAccount(ctx context.Context, accountKey, branchCode string, businessDate time.Time, limit int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, accountKey, branchCode, businessDate, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkVoided(ctx context.Context, transactionID, voidReference string) error {
	args := m.Called(ctx, transactionID, voidReference)
	return args.Error(0)
}

func (m *MockTransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	m.Called(tx)
	return m
}

type MockHandoffRepository struct {
	mock.Mock
}

func (m *MockHandoffRepository) Create(ctx context.Context, submission *reconciliation.HandoffSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockHandoffRepository) LatestForTeller(ctx context.Context, tellerUserID string, businessDate time.Time) (*reconciliation.HandoffSubmission, error) {
	args := m.Called(ctx, tellerUserID, businessDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.HandoffSubmission), args.Error(1)
}

func (m *MockHandoffRepository) LatestPerTeller(ctx context.Context, branchCode string, businessDate time.Time) ([]*reconciliation.HandoffSubmission, error) {
	args := m.Called(ctx, branchCode, businessDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reconciliation.HandoffSubmission), args.Error(1)
}

func (m *MockHandoffRepository) WithTx(tx pgx.Tx) reconciliation.HandoffRepository {
	m.Called(tx)
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *audit.OutboxMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*audit.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.OutboxMessage), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status audit.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) audit.OutboxRepository {
	m.Called(tx)
	return m
}
