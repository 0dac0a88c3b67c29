package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/branchday-backoffice/internal/domain/audit"
	"github.com/branchday-backoffice/internal/domain/shared"
)

// MockPersistenceService mocks service.PersistenceService
type MockPersistenceService struct {
	mock.Mock
}

func (m *MockPersistenceService) PersistFact(ctx context.Context, fact *audit.Fact) error {
	args := m.Called(ctx, fact)
	return args.Error(0)
}

// MockDeadLetterPublisher mocks producers.DeadLetterPublisher
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func encodedFact(t *testing.T) (*audit.Fact, []byte) {
	t.Helper()
	fact := audit.NewFact(audit.ActionTransactionCreate, audit.EntityTransaction,
		"TXN-BR01-20240315-000001",
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "BR01",
		shared.Actor{UserID: "teller-1", Role: shared.RoleTeller, BranchCode: "BR01"},
		nil)
	value, err := json.Marshal(fact)
	require.NoError(t, err)
	return fact, value
}

func TestAuditFactHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("ValidFactIsPersisted", func(t *testing.T) {
		mockPersistence := &MockPersistenceService{}
		handler := NewAuditFactHandler(logger, mockPersistence, nil)

		fact, value := encodedFact(t)
		mockPersistence.On("PersistFact", mock.Anything, mock.MatchedBy(func(f *audit.Fact) bool {
			return f.ID == fact.ID && f.Action == fact.Action
		})).Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte(fact.ID.String()), value)

		assert.NoError(t, err)
		mockPersistence.AssertExpectations(t)
	})

	t.Run("UnmarshalFailureGoesToDLQ", func(t *testing.T) {
		mockPersistence := &MockPersistenceService{}
		mockDLQ := &MockDeadLetterPublisher{}
		handler := NewAuditFactHandler(logger, mockPersistence, mockDLQ)

		bad := []byte(`{"id": not-json`)
		mockDLQ.On("PublishToDLQ", mock.Anything, "key-1", bad, mock.AnythingOfType("string")).Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte("key-1"), bad)

		// DLQ accepted the message, so the offset can be committed
		assert.NoError(t, err)
		mockPersistence.AssertNotCalled(t, "PersistFact", mock.Anything, mock.Anything)
		mockDLQ.AssertExpectations(t)
	})

	t.Run("UnmarshalFailureWithDLQErrorIsRetried", func(t *testing.T) {
		mockPersistence := &MockPersistenceService{}
		mockDLQ := &MockDeadLetterPublisher{}
		handler := NewAuditFactHandler(logger, mockPersistence, mockDLQ)

		bad := []byte(`not json at all`)
		mockDLQ.On("PublishToDLQ", mock.Anything, "key-2", bad, mock.AnythingOfType("string")).
			Return(errors.New("dlq broker unavailable")).Once()

		err := handler.HandleMessage(ctx, []byte("key-2"), bad)

		assert.ErrorContains(t, err, "failed to unmarshal message value")
		mockDLQ.AssertExpectations(t)
	})

	t.Run("UnmarshalFailureWithoutDLQIsRetried", func(t *testing.T) {
		mockPersistence := &MockPersistenceService{}
		handler := NewAuditFactHandler(logger, mockPersistence, nil)

		err := handler.HandleMessage(ctx, []byte("key-3"), []byte(`{`))

		assert.ErrorContains(t, err, "failed to unmarshal message value")
	})

	t.Run("PersistFailureIsRetried", func(t *testing.T) {
		mockPersistence := &MockPersistenceService{}
		handler := NewAuditFactHandler(logger, mockPersistence, nil)

		fact, value := encodedFact(t)
		mockPersistence.On("PersistFact", mock.Anything, mock.Anything).
			Return(errors.New("mongo write timeout")).Once()

		err := handler.HandleMessage(ctx, []byte(fact.ID.String()), value)

		assert.ErrorContains(t, err, "mongo write timeout")
		mockPersistence.AssertExpectations(t)
	})
}
