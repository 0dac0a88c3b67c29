package reconciliation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchday-backoffice/internal/domain/transaction"
)

func amount(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func tx(txType transaction.Type, amt string, status transaction.Status, createdAt time.Time) *transaction.Transaction {
	return &transaction.Transaction{
		Type:      txType,
		Amount:    amount(amt),
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("EmptySetIsZero", func(t *testing.T) {
		summary := Summarize(nil)

		assert.Equal(t, 0, summary.TxCount)
		assert.True(t, summary.Deposits.IsZero())
		assert.True(t, summary.Withdrawals.IsZero())
		assert.True(t, summary.Net().IsZero())
		assert.Nil(t, summary.LastActivityAt)
	})

	t.Run("DepositsMinusWithdrawals", func(t *testing.T) {
		summary := Summarize([]*transaction.Transaction{
			tx(transaction.TypeDeposit, "100.50", transaction.StatusCompleted, base),
			tx(transaction.TypeDeposit, "25.00", transaction.StatusCompleted, base.Add(time.Minute)),
			tx(transaction.TypeWithdrawal, "40.25", transaction.StatusCompleted, base.Add(2*time.Minute)),
		})

		assert.Equal(t, 3, summary.TxCount)
		assert.Equal(t, "125.50", summary.Deposits.StringFixed(2))
		assert.Equal(t, "40.25", summary.Withdrawals.StringFixed(2))
		assert.Equal(t, "85.25", summary.Net().StringFixed(2))
		require.NotNil(t, summary.LastActivityAt)
		assert.Equal(t, base.Add(2*time.Minute), *summary.LastActivityAt)
	})

	t.Run("VoidedPairNetsToZero", func(t *testing.T) {
		// A voided deposit stays in the fold; its reversal is a
		// withdrawal of the same amount, so the pair cancels out.
		summary := Summarize([]*transaction.Transaction{
			tx(transaction.TypeDeposit, "60.00", transaction.StatusVoided, base),
			tx(transaction.TypeWithdrawal, "60.00", transaction.StatusCompleted, base.Add(time.Minute)),
		})

		assert.Equal(t, 2, summary.TxCount)
		assert.Equal(t, 1, summary.VoidedCount)
		assert.True(t, summary.Net().IsZero())
	})
}

func TestNewHandoffSubmission(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	sub := NewHandoffSubmission("teller-1", "BR01", date, amount("25.00"), amount("30.00"), "drawer short")

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", sub.ID.String())
	assert.Equal(t, "teller-1", sub.TellerUserID)
	assert.Equal(t, "25.00", sub.DeclaredNet.StringFixed(2))
	assert.Equal(t, "30.00", sub.ComputedNet.StringFixed(2))
	assert.Equal(t, "-5.00", sub.Discrepancy.StringFixed(2))
	assert.Equal(t, "drawer short", sub.Note)
	assert.False(t, sub.SubmittedAt.IsZero())
}

func TestNewHandoffSubmissionRoundsDeclared(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	sub := NewHandoffSubmission("teller-1", "BR01", date, amount("25.005"), amount("25.00"), "")

	assert.Equal(t, "25.01", sub.DeclaredNet.StringFixed(2))
	assert.Equal(t, "0.01", sub.Discrepancy.StringFixed(2))
}
