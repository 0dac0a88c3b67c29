package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccountRestricted(t *testing.T) {
	acc := &Account{}
	assert.False(t, acc.Restricted())

	acc.OperationRestrictions = "   "
	assert.False(t, acc.Restricted())

	acc.OperationRestrictions = "NO_DEBIT"
	assert.True(t, acc.Restricted())
}

func TestAccountHasLiens(t *testing.T) {
	acc := &Account{Liens: decimal.Zero}
	assert.False(t, acc.HasLiens())

	acc.Liens = decimal.RequireFromString("0.01")
	assert.True(t, acc.HasLiens())
}

func TestNewAccountFromSnapshot(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	row := SnapshotRow{
		AccountKey:        "ACC-001",
		FullAccountNumber: "0011002200334455",
		AccountName:       "ACME Trading Ltd",
		CurrentBalance:    decimal.RequireFromString("150.75"),
		HeldBalance:       decimal.RequireFromString("20.00"),
		Liens:             decimal.Zero,
	}

	acc := NewAccountFromSnapshot(row, "BR01", date)

	assert.Equal(t, "ACC-001", acc.AccountKey)
	assert.Equal(t, "BR01", acc.BranchCode)
	assert.Equal(t, date, acc.LoadedDate)
	assert.True(t, acc.OpeningBalance.Equal(row.CurrentBalance))
	assert.True(t, acc.CurrentBalance.Equal(row.CurrentBalance))
	assert.Equal(t, 1, acc.Version)
	assert.False(t, acc.CreatedAt.IsZero())
}
