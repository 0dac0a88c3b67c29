package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Insert(ctx context.Context, fact *audit.Fact) error {
	args := m.Called(ctx, fact)
	return args.Error(0)
}

func testFact() *audit.Fact {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	actor := shared.Actor{UserID: "teller-1", Role: shared.RoleTeller, BranchCode: "BR01"}
	payload := audit.TransactionCreatePayload{
		AccountKey:    "ACC-001",
		Type:          transaction.TypeDeposit,
		Amount:        decimal.NewFromFloat(250.00),
		BalanceBefore: decimal.NewFromFloat(1000.50),
		BalanceAfter:  decimal.NewFromFloat(1250.50),
		VersionBefore: 1,
		VersionAfter:  2,
	}
	return audit.NewFact(audit.ActionTransactionCreate, audit.EntityTransaction,
		"TXN-BR01-20240315-000001", date, "BR01", actor, payload)
}

func TestFactDocument(t *testing.T) {
	fact := testFact()

	doc, err := factDocument(fact)
	require.NoError(t, err)
	require.NotEmpty(t, doc)

	assert.Equal(t, fact.ID.String(), doc["id"])
	assert.Equal(t, string(audit.ActionTransactionCreate), doc["action"])
	assert.Equal(t, audit.EntityTransaction, doc["entity_type"])
	assert.Equal(t, "TXN-BR01-20240315-000001", doc["entity_id"])
	assert.Equal(t, "transaction_create", doc["payload_kind"])
	assert.NotNil(t, doc["payload"])
	assert.NotNil(t, doc["actor"])
}

func TestFactDocument_PayloadRoundTrip(t *testing.T) {
	fact := testFact()

	doc, err := factDocument(fact)
	require.NoError(t, err)

	// The document must decode back into the same fact, payload included
	data, err := bson.MarshalExtJSON(doc, false, false)
	require.NoError(t, err)

	var decoded audit.Fact
	require.NoError(t, decoded.UnmarshalJSON(data))

	assert.Equal(t, fact.ID, decoded.ID)
	assert.Equal(t, fact.Action, decoded.Action)
	payload, ok := decoded.Payload.(audit.TransactionCreatePayload)
	require.True(t, ok)
	assert.Equal(t, "ACC-001", payload.AccountKey)
	assert.True(t, payload.Amount.Equal(decimal.NewFromFloat(250.00)))
}

func TestMockAuditStore_Insert(t *testing.T) {
	ctx := context.Background()
	store := new(MockAuditStore)
	fact := testFact()

	store.On("Insert", ctx, fact).Return(nil).Once()

	err := store.Insert(ctx, fact)
	assert.NoError(t, err)
	store.AssertExpectations(t)
}
