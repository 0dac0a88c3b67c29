package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/branchday-backoffice/internal/backoffice/service"
	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/branchday-backoffice/internal/domain/transaction"
)

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, input service.CreateTransactionInput) (*transaction.Transaction, error) {
	args := m.Called(ctx, businessDate, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) VoidTransaction(ctx context.Context, businessDate time.Time, actor shared.Actor, transactionID string) (*service.VoidResult, error) {
	args := m.Called(ctx, businessDate, actor, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VoidResult), args.Error(1)
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func sampleTransaction() *transaction.Transaction {
	return &transaction.Transaction{
		TransactionID: "TXN-BR01-20240315-000001",
		BusinessDate:  handlerTestDate(),
		BranchCode:    "BR01",
		AccountKey:    "ACC-001",
		Type:          transaction.TypeDeposit,
		Amount:        decimal.NewFromFloat(40.00),
		BalanceBefore: decimal.NewFromFloat(100.00),
		BalanceAfter:  decimal.NewFromFloat(140.00),
		Status:        transaction.StatusCompleted,
		TellerUserID:  "teller-1",
		CreatedAt:     handlerTestDate().Add(9 * time.Hour),
	}
}

func TestTransactionHandler_Create(t *testing.T) {
	postCreate := func(h *TransactionHandler, body CreateTransactionRequest, identity func(*http.Request)) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.POST("/transactions", h.Create)

		jsonBody, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/transactions?business_date=2024-03-15", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		identity(req)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	validRequest := CreateTransactionRequest{
		AccountKey: "ACC-001",
		BranchCode: "BR01",
		Type:       "DEPOSIT",
		Amount:     "40.00",
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("CreateTransaction", mock.Anything, handlerTestDate(),
			shared.Actor{UserID: "teller-1", Role: shared.RoleTeller, BranchCode: "BR01"},
			mock.MatchedBy(func(input service.CreateTransactionInput) bool {
				return input.AccountKey == "ACC-001" &&
					input.Type == transaction.TypeDeposit &&
					input.Amount.Equal(decimal.NewFromFloat(40.00))
			})).Return(sampleTransaction(), nil).Once()

		rr := postCreate(h, validRequest, setTellerIdentity)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var body TransactionResponse
		decodeDataInto(t, rr.Body.Bytes(), &body)
		assert.Equal(t, "TXN-BR01-20240315-000001", body.TransactionID)
		assert.Equal(t, "140.00", body.BalanceAfter)
		mockService.AssertExpectations(t)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("CreateTransaction", mock.Anything, handlerTestDate(), mock.Anything, mock.Anything).
			Return(nil, transaction.ErrInsufficientFunds{AccountKey: "ACC-001"}).Once()

		body := validRequest
		body.Type = "WITHDRAWAL"
		body.Amount = "400.00"
		rr := postCreate(h, body, setTellerIdentity)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "INSUFFICIENT_FUNDS", errorCode(t, rr.Body.Bytes()))
	})

	t.Run("TellerCrossBranchForbidden", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		body := validRequest
		body.BranchCode = "BR02"
		rr := postCreate(h, body, setTellerIdentity)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockService.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OmittedBranchDefaultsToOwn", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("CreateTransaction", mock.Anything, handlerTestDate(), mock.Anything,
			mock.MatchedBy(func(input service.CreateTransactionInput) bool {
				return input.BranchCode == "BR01"
			})).Return(sampleTransaction(), nil).Once()

		body := validRequest
		body.BranchCode = ""
		rr := postCreate(h, body, setTellerIdentity)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ExpectedVersionPassedThrough", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("CreateTransaction", mock.Anything, handlerTestDate(), mock.Anything,
			mock.MatchedBy(func(input service.CreateTransactionInput) bool {
				return input.ExpectedVersion == 4
			})).Return(sampleTransaction(), nil).Once()

		body := validRequest
		body.ExpectedVersion = 4
		rr := postCreate(h, body, setTellerIdentity)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		body := validRequest
		body.Amount = "-5.00"
		rr := postCreate(h, body, setTellerIdentity)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("UnknownType", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		body := validRequest
		body.Type = "TRANSFER"
		rr := postCreate(h, body, setTellerIdentity)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTransactionHandler_GetByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("GetTransaction", mock.Anything, "TXN-BR01-20240315-000001").Return(sampleTransaction(), nil).Once()

		router := setupTestRouter()
		router.GET("/transactions/:id", h.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transactions/TXN-BR01-20240315-000001", nil)
		setTellerIdentity(req)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body TransactionResponse
		decodeDataInto(t, rr.Body.Bytes(), &body)
		assert.Equal(t, "DEPOSIT", body.Type)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("GetTransaction", mock.Anything, "TXN-BR01-20240315-000099").
			Return(nil, transaction.ErrTransactionNotFound{TransactionID: "TXN-BR01-20240315-000099"}).Once()

		router := setupTestRouter()
		router.GET("/transactions/:id", h.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transactions/TXN-BR01-20240315-000099", nil)
		setTellerIdentity(req)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "TRANSACTION_NOT_FOUND", errorCode(t, rr.Body.Bytes()))
	})
}

func TestTransactionHandler_Void(t *testing.T) {
	postVoid := func(h *TransactionHandler, id string) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.POST("/transactions/:id/void", h.Void)

		req, _ := http.NewRequest(http.MethodPost, "/transactions/"+id+"/void?business_date=2024-03-15", nil)
		setTellerIdentity(req)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		original := sampleTransaction()
		original.Status = transaction.StatusVoided
		original.VoidReference = "TXN-BR01-20240315-000002"
		reversal := sampleTransaction()
		reversal.TransactionID = "TXN-BR01-20240315-000002"
		reversal.Type = transaction.TypeWithdrawal
		reversal.ReferenceNote = transaction.VoidNote(original.TransactionID)

		mockService.On("VoidTransaction", mock.Anything, handlerTestDate(),
			shared.Actor{UserID: "teller-1", Role: shared.RoleTeller, BranchCode: "BR01"},
			original.TransactionID).Return(&service.VoidResult{Original: original, Reversal: reversal}, nil).Once()

		rr := postVoid(h, original.TransactionID)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body VoidResponse
		decodeDataInto(t, rr.Body.Bytes(), &body)
		assert.Equal(t, "VOIDED", body.Original.Status)
		assert.Equal(t, "VOID_OF:TXN-BR01-20240315-000001", body.Reversal.ReferenceNote)
	})

	t.Run("AlreadyVoided", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("VoidTransaction", mock.Anything, handlerTestDate(), mock.Anything, "TXN-BR01-20240315-000001").
			Return(nil, transaction.ErrAlreadyVoided{TransactionID: "TXN-BR01-20240315-000001"}).Once()

		rr := postVoid(h, "TXN-BR01-20240315-000001")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "ALREADY_VOIDED", errorCode(t, rr.Body.Bytes()))
	})

	t.Run("ForbiddenVoid", func(t *testing.T) {
		mockService := new(MockTransactionService)
		h := NewTransactionHandler(testLogger(), mockService)

		mockService.On("VoidTransaction", mock.Anything, handlerTestDate(), mock.Anything, "TXN-BR01-20240315-000001").
			Return(nil, transaction.ErrForbiddenVoid{TransactionID: "TXN-BR01-20240315-000001"}).Once()

		rr := postVoid(h, "TXN-BR01-20240315-000001")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "FORBIDDEN_VOID", errorCode(t, rr.Body.Bytes()))
	})
}
