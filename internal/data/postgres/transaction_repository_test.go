package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransaction(now time.Time) *transaction.Transaction {
	return &transaction.Transaction{
		TransactionID: "TXN-BR01-20240315-000001",
		BusinessDate:  testBusinessDate(),
		BranchCode:    "BR01",
		AccountKey:    "ACC-001",
		Type:          transaction.TypeDeposit,
		Amount:        decimal.NewFromFloat(250.00),
		BalanceBefore: decimal.NewFromFloat(1000.50),
		BalanceAfter:  decimal.NewFromFloat(1250.50),
		Status:        transaction.StatusCompleted,
		TellerUserID:  "teller-1",
		CreatedAt:     now,
	}
}

func transactionRows(txs ...*transaction.Transaction) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"transaction_id", "business_date", "branch_code", "account_key", "type", "amount",
		"balance_before", "balance_after", "status", "void_reference", "teller_user_id", "reference_note", "created_at",
	})
	for _, tx := range txs {
		rows.AddRow(
			tx.TransactionID, tx.BusinessDate, tx.BranchCode, tx.AccountKey, tx.Type, tx.Amount,
			tx.BalanceBefore, tx.BalanceAfter, tx.Status, tx.VoidReference, tx.TellerUserID, tx.ReferenceNote, tx.CreatedAt,
		)
	}
	return rows
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	tx := testTransaction(time.Now())

	query := `INSERT INTO transactions`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(tx.TransactionID, tx.BusinessDate, tx.BranchCode, tx.AccountKey, tx.Type, tx.Amount,
				tx.BalanceBefore, tx.BalanceAfter, tx.Status, tx.VoidReference, tx.TellerUserID, tx.ReferenceNote, tx.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, tx)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate transaction id", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(tx.TransactionID, tx.BusinessDate, tx.BranchCode, tx.AccountKey, tx.Type, tx.Amount,
				tx.BalanceBefore, tx.BalanceAfter, tx.Status, tx.VoidReference, tx.TellerUserID, tx.ReferenceNote, tx.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation})

		err := repo.Create(ctx, tx)
		assert.Error(t, err)
		var dupErr transaction.ErrDuplicateTransactionID
		assert.ErrorAs(t, err, &dupErr)
		assert.Equal(t, tx.TransactionID, dupErr.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("insert db error")
		mock.ExpectExec(query).
			WithArgs(tx.TransactionID, tx.BusinessDate, tx.BranchCode, tx.AccountKey, tx.Type, tx.Amount,
				tx.BalanceBefore, tx.BalanceAfter, tx.Status, tx.VoidReference, tx.TellerUserID, tx.ReferenceNote, tx.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, tx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create transaction")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByTransactionID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	expectedTx := testTransaction(time.Now())

	query := `SELECT .+ FROM transactions\s+WHERE transaction_id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(expectedTx.TransactionID).
			WillReturnRows(transactionRows(expectedTx))

		tx, err := repo.GetByTransactionID(ctx, expectedTx.TransactionID)
		assert.NoError(t, err)
		assert.Equal(t, expectedTx, tx)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs("TXN-BR01-20240315-999999").
			WillReturnError(pgx.ErrNoRows)

		tx, err := repo.GetByTransactionID(ctx, "TXN-BR01-20240315-999999")
		assert.Error(t, err)
		assert.Nil(t, tx)
		var notFoundErr transaction.ErrTransactionNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_CountForBranchDate(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	date := testBusinessDate()

	query := `SELECT COUNT\(\*\)\s+FROM transactions\s+WHERE branch_code = \$1 AND business_date = \$2`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs("BR01", date).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountForBranchDate(ctx, "BR01", date)
		assert.NoError(t, err)
		assert.Equal(t, 7, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("count db error")
		mock.ExpectQuery(query).WithArgs("BR01", date).WillReturnError(dbErr)

		count, err := repo.CountForBranchDate(ctx, "BR01", date)
		assert.Error(t, err)
		assert.Zero(t, count)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_ListForDate(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	date := testBusinessDate()
	tx1 := testTransaction(time.Now())
	tx2 := testTransaction(time.Now().Add(time.Minute))
	tx2.TransactionID = "TXN-BR01-20240315-000002"
	tx2.Type = transaction.TypeWithdrawal

	query := `SELECT .+ FROM transactions\s+WHERE business_date = \$1`

	t.Run("all for branch", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(date, "BR01", "").
			WillReturnRows(transactionRows(tx1, tx2))

		txs, err := repo.ListForDate(ctx, date, transaction.Filter{BranchCode: "BR01"})
		assert.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, tx1.TransactionID, txs[0].TransactionID)
		assert.Equal(t, tx2.TransactionID, txs[1].TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("teller scope empty", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(date, "BR01", "teller-9").
			WillReturnRows(transactionRows())

		txs, err := repo.ListForDate(ctx, date, transaction.Filter{BranchCode: "BR01", TellerUserID: "teller-9"})
		assert.NoError(t, err)
		assert.Empty(t, txs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_MarkVoided(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	query := `UPDATE transactions\s+SET status = \$1, void_reference = \$2\s+WHERE transaction_id = \$3`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(transaction.StatusVoided, "TXN-BR01-20240315-000005", "TXN-BR01-20240315-000001").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.MarkVoided(ctx, "TXN-BR01-20240315-000001", "TXN-BR01-20240315-000005")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(transaction.StatusVoided, "TXN-BR01-20240315-000005", "TXN-BR01-20240315-000001").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkVoided(ctx, "TXN-BR01-20240315-000001", "TXN-BR01-20240315-000005")
		assert.Error(t, err)
		var notFoundErr transaction.ErrTransactionNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
