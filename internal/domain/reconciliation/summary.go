package reconciliation

import (
	"time"

	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Summary is the read-only aggregation of a set of transactions for a
// scope (teller, branch, or whole day)
type Summary struct {
	TxCount        int             `json:"tx_count"`
	Deposits       decimal.Decimal `json:"deposits"`
	Withdrawals    decimal.Decimal `json:"withdrawals"`
	VoidedCount    int             `json:"voided_count"`
	LastActivityAt *time.Time      `json:"last_activity_at,omitempty"`
}

// Net is the computed net figure: deposits − withdrawals, rounded to 2 decimals
func (s Summary) Net() decimal.Decimal {
	return s.Deposits.Sub(s.Withdrawals).Round(2)
}

// Summarize folds a set of transactions into totals. Voided originals
// still count toward the sums; their reversals carry the opposite type,
// so the fold nets them out without rewriting history.
func Summarize(txs []*transaction.Transaction) Summary {
	summary := Summary{
		Deposits:    decimal.Zero,
		Withdrawals: decimal.Zero,
	}
	for _, tx := range txs {
		if tx.Type == transaction.TypeDeposit {
			summary.Deposits = summary.Deposits.Add(tx.Amount)
		} else {
			summary.Withdrawals = summary.Withdrawals.Add(tx.Amount)
		}
		if tx.Status == transaction.StatusVoided {
			summary.VoidedCount++
		}
		summary.TxCount++
		if summary.LastActivityAt == nil || tx.CreatedAt.After(*summary.LastActivityAt) {
			createdAt := tx.CreatedAt
			summary.LastActivityAt = &createdAt
		}
	}
	summary.Deposits = summary.Deposits.Round(2)
	summary.Withdrawals = summary.Withdrawals.Round(2)
	return summary
}
