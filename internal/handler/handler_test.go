package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aegisbank/ledger-engine/internal/config"
	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/handler"
	"github.com/aegisbank/ledger-engine/internal/mocks"
	"github.com/aegisbank/ledger-engine/internal/service"
	customError "github.com/aegisbank/ledger-engine/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			ExternalTransferFee: "0.50",
			MaxLoanPrincipal:    "1000000",
			MaxLoanTermMonths:   360,
			IBANMaxAttempts:     10,
			PendingTransferTTL:  "720h",
			TransferCacheTTL:    "5m",
		},
	}
}

func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	r.Header.Set("X-User-ID", userID.String())
	return r
}

func asAdmin(r *http.Request, userID uuid.UUID) *http.Request {
	r.Header.Set("X-User-ID", userID.String())
	r.Header.Set("X-User-Role", "admin")
	return r
}

func TestAccountHandlerCreate(t *testing.T) {
	ownerID := uuid.New()

	t.Run("201 - account opened", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("ExistsByIBAN", mock.Anything, mock.Anything).Return(false, nil)
		store.AccountRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
		h := handler.NewAccountHandler(service.NewAccountService(store, testConfig()))

		body, _ := json.Marshal(domain.CreateAccountRequest{Type: domain.AccountTypeChecking, Nickname: "Everyday"})
		req := asUser(httptest.NewRequest("POST", "/api/v1/accounts", bytes.NewReader(body)), ownerID)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"PENDING"`)
	})

	t.Run("401 - identity header missing", func(t *testing.T) {
		h := handler.NewAccountHandler(service.NewAccountService(mocks.NewMockStore(), testConfig()))

		body, _ := json.Marshal(domain.CreateAccountRequest{Type: domain.AccountTypeChecking})
		req := httptest.NewRequest("POST", "/api/v1/accounts", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("400 - missing account type", func(t *testing.T) {
		h := handler.NewAccountHandler(service.NewAccountService(mocks.NewMockStore(), testConfig()))

		req := asUser(httptest.NewRequest("POST", "/api/v1/accounts", bytes.NewReader([]byte(`{}`))), ownerID)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAccountHandlerGet(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()

	t.Run("200 - own account", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).Return(&domain.Account{
			ID:      accountID,
			OwnerID: ownerID,
			Status:  domain.AccountStatusActive,
			Balance: decimal.RequireFromString("42.10"),
		}, nil)
		h := handler.NewAccountHandler(service.NewAccountService(store, testConfig()))

		req := asUser(httptest.NewRequest("GET", "/api/v1/accounts/"+accountID.String(), nil), ownerID)
		req = mux.SetURLVars(req, map[string]string{"accountId": accountID.String()})
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("404 - unknown account", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(nil, customError.WrapNotFound("account", accountID.String()))
		h := handler.NewAccountHandler(service.NewAccountService(store, testConfig()))

		req := asUser(httptest.NewRequest("GET", "/api/v1/accounts/"+accountID.String(), nil), ownerID)
		req = mux.SetURLVars(req, map[string]string{"accountId": accountID.String()})
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("403 - someone else's account", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).Return(&domain.Account{
			ID:      accountID,
			OwnerID: ownerID,
		}, nil)
		h := handler.NewAccountHandler(service.NewAccountService(store, testConfig()))

		req := asUser(httptest.NewRequest("GET", "/api/v1/accounts/"+accountID.String(), nil), uuid.New())
		req = mux.SetURLVars(req, map[string]string{"accountId": accountID.String()})
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestTransferHandlerSettle(t *testing.T) {
	ownerID := uuid.New()
	sourceID := uuid.New()
	transferID := uuid.New()

	t.Run("409 - already settled", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.TransferRepo.On("GetByID", mock.Anything, transferID).Return(&domain.Transfer{
			ID:            transferID,
			FromAccountID: sourceID,
			Status:        domain.TransferStatusCompleted,
		}, nil)
		store.AccountRepo.On("GetByID", mock.Anything, sourceID).
			Return(&domain.Account{ID: sourceID, OwnerID: ownerID}, nil)
		h := handler.NewTransferHandler(service.NewTransferService(store, nil, testConfig()))

		req := asUser(httptest.NewRequest("POST", "/api/v1/transfers/"+transferID.String()+"/settle", nil), ownerID)
		req = mux.SetURLVars(req, map[string]string{"transferId": transferID.String()})
		rec := httptest.NewRecorder()

		h.Settle(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), customError.ErrCodeInvalidState)
	})

	t.Run("400 - malformed transfer id", func(t *testing.T) {
		h := handler.NewTransferHandler(service.NewTransferService(mocks.NewMockStore(), nil, testConfig()))

		req := asUser(httptest.NewRequest("POST", "/api/v1/transfers/nope/settle", nil), ownerID)
		req = mux.SetURLVars(req, map[string]string{"transferId": "nope"})
		rec := httptest.NewRecorder()

		h.Settle(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransferHandlerCreate(t *testing.T) {
	ownerID := uuid.New()
	sourceID := uuid.New()
	toIBAN := "GR0512340000123456789012"

	t.Run("422 - insufficient funds", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, sourceID).Return(&domain.Account{
			ID:      sourceID,
			OwnerID: ownerID,
			Status:  domain.AccountStatusActive,
			Balance: decimal.RequireFromString("10"),
		}, nil)
		store.AccountRepo.On("GetByIBAN", mock.Anything, toIBAN).
			Return(nil, customError.WrapNotFound("account", toIBAN))
		h := handler.NewTransferHandler(service.NewTransferService(store, nil, testConfig()))

		body, _ := json.Marshal(domain.CreateTransferRequest{
			FromAccountID: sourceID,
			ToIBAN:        toIBAN,
			Amount:        decimal.RequireFromString("100"),
		})
		req := asUser(httptest.NewRequest("POST", "/api/v1/transfers", bytes.NewReader(body)), ownerID)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), customError.ErrCodeInsufficientFunds)
	})
}

func TestLoanHandlerDecide(t *testing.T) {
	adminID := uuid.New()
	borrowerID := uuid.New()

	t.Run("200 - rejection recorded", func(t *testing.T) {
		loan := &domain.Loan{
			ID:           uuid.New(),
			BorrowerID:   borrowerID,
			Principal:    decimal.RequireFromString("1000"),
			InterestRate: decimal.RequireFromString("0.05"),
			TermMonths:   12,
			Status:       domain.LoanStatusPending,
		}
		store := mocks.NewMockStore()
		store.LoanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		store.LoanRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		cfg := testConfig()
		svc := service.NewLoanService(store, service.NewAccountService(store, cfg), cfg)
		h := handler.NewLoanHandler(svc)

		body, _ := json.Marshal(domain.LoanDecisionRequest{Status: domain.LoanStatusRejected, AdminNotes: "no"})
		req := asAdmin(httptest.NewRequest("POST", "/api/v1/loans/"+loan.ID.String()+"/decision", bytes.NewReader(body)), adminID)
		req = mux.SetURLVars(req, map[string]string{"loanId": loan.ID.String()})
		rec := httptest.NewRecorder()

		h.Decide(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"REJECTED"`)
	})

	t.Run("400 - decision outside the enum", func(t *testing.T) {
		cfg := testConfig()
		store := mocks.NewMockStore()
		svc := service.NewLoanService(store, service.NewAccountService(store, cfg), cfg)
		h := handler.NewLoanHandler(svc)

		loanID := uuid.New()
		body := []byte(`{"status":"ACTIVE"}`)
		req := asAdmin(httptest.NewRequest("POST", "/api/v1/loans/"+loanID.String()+"/decision", bytes.NewReader(body)), adminID)
		req = mux.SetURLVars(req, map[string]string{"loanId": loanID.String()})
		rec := httptest.NewRecorder()

		h.Decide(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
