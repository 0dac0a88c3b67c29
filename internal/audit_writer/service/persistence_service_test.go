package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/branchday-backoffice/internal/domain/audit"
)

// MockAuditStore mocks audit.Store
type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Insert(ctx context.Context, fact *audit.Fact) error {
	args := m.Called(ctx, fact)
	return args.Error(0)
}

func TestPersistenceService_PersistFact(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("InsertsFact", func(t *testing.T) {
		mockStore := &MockAuditStore{}
		svc := NewPersistenceService(logger, mockStore)

		fact := testFact()
		mockStore.On("Insert", ctx, fact).Return(nil).Once()

		err := svc.PersistFact(ctx, fact)

		assert.NoError(t, err)
		mockStore.AssertExpectations(t)
	})

	t.Run("WrapsStoreError", func(t *testing.T) {
		mockStore := &MockAuditStore{}
		svc := NewPersistenceService(logger, mockStore)

		fact := testFact()
		mockStore.On("Insert", ctx, fact).Return(errors.New("duplicate key")).Once()

		err := svc.PersistFact(ctx, fact)

		assert.ErrorContains(t, err, "failed to persist audit fact")
		assert.ErrorContains(t, err, "duplicate key")
	})
}
