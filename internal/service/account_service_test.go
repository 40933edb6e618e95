package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aegisbank/ledger-engine/internal/config"
	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/mocks"
	"github.com/aegisbank/ledger-engine/internal/service"
	customError "github.com/aegisbank/ledger-engine/pkg/errors"
	"github.com/aegisbank/ledger-engine/pkg/iban"
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

// decEq matches a decimal argument by value rather than representation.
func decEq(want string) interface{} {
	target := decimal.RequireFromString(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(target) })
}

func TestAccountCreate(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name           string
		actor          domain.Actor
		ownerID        uuid.UUID
		accountType    domain.AccountType
		setupMocks     func(*mocks.MockStore)
		expectedError  bool
		errorCheck     func(error) bool
		validateResult func(*testing.T, *domain.Account)
	}{
		{
			name:        "Success - customer account starts pending",
			actor:       domain.Actor{UserID: ownerID},
			ownerID:     ownerID,
			accountType: domain.AccountTypeChecking,
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("ExistsByIBAN", mock.Anything, mock.Anything).Return(false, nil)
				store.AccountRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
			},
			validateResult: func(t *testing.T, account *domain.Account) {
				assert.Equal(t, domain.AccountStatusPending, account.Status)
				assert.Equal(t, ownerID, account.OwnerID)
				assert.True(t, account.Balance.IsZero())
				assert.True(t, iban.Valid(account.IBAN))
			},
		},
		{
			name:        "Success - staff account starts active",
			actor:       domain.Actor{UserID: uuid.New(), Admin: true},
			ownerID:     ownerID,
			accountType: domain.AccountTypeSavings,
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("ExistsByIBAN", mock.Anything, mock.Anything).Return(false, nil)
				store.AccountRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
			},
			validateResult: func(t *testing.T, account *domain.Account) {
				assert.Equal(t, domain.AccountStatusActive, account.Status)
			},
		},
		{
			name:        "Success - IBAN collision retried",
			actor:       domain.Actor{UserID: ownerID},
			ownerID:     ownerID,
			accountType: domain.AccountTypeChecking,
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("ExistsByIBAN", mock.Anything, mock.Anything).Return(true, nil).Twice()
				store.AccountRepo.On("ExistsByIBAN", mock.Anything, mock.Anything).Return(false, nil).Once()
				store.AccountRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
			},
			validateResult: func(t *testing.T, account *domain.Account) {
				assert.True(t, iban.Valid(account.IBAN))
			},
		},
		{
			name:        "Failure - IBAN space exhausted",
			actor:       domain.Actor{UserID: ownerID},
			ownerID:     ownerID,
			accountType: domain.AccountTypeChecking,
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("ExistsByIBAN", mock.Anything, mock.Anything).Return(true, nil)
			},
			expectedError: true,
			errorCheck:    customError.IsResourceExhausted,
		},
		{
			name:          "Failure - invalid account type",
			actor:         domain.Actor{UserID: ownerID},
			ownerID:       ownerID,
			accountType:   domain.AccountType("CRYPTO"),
			setupMocks:    func(store *mocks.MockStore) {},
			expectedError: true,
			errorCheck:    customError.IsValidation,
		},
		{
			name:          "Failure - customer cannot open for someone else",
			actor:         domain.Actor{UserID: otherID},
			ownerID:       ownerID,
			accountType:   domain.AccountTypeChecking,
			setupMocks:    func(store *mocks.MockStore) {},
			expectedError: true,
			errorCheck:    customError.IsForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			tt.setupMocks(store)
			svc := service.NewAccountService(store, testConfig())

			account, err := svc.Create(context.Background(), tt.actor, tt.ownerID, tt.accountType, "Everyday")

			if tt.expectedError {
				assert.Error(t, err)
				if tt.errorCheck != nil {
					assert.True(t, tt.errorCheck(err))
				}
				assert.Nil(t, account)
			} else {
				assert.NoError(t, err)
				if tt.validateResult != nil {
					tt.validateResult(t, account)
				}
			}
			store.AssertExpectations(t)
		})
	}
}

func TestAccountApprove(t *testing.T) {
	admin := domain.Actor{UserID: uuid.New(), Admin: true}
	accountID := uuid.New()

	t.Run("Success - pending account activated", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusPending}, nil)
		store.AccountRepo.On("UpdateStatus", mock.Anything, accountID, domain.AccountStatusActive).Return(nil)
		svc := service.NewAccountService(store, testConfig())

		account, err := svc.Approve(context.Background(), admin, accountID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AccountStatusActive, account.Status)
		store.AssertExpectations(t)
	})

	t.Run("Failure - account not pending", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusActive}, nil)
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Approve(context.Background(), admin, accountID)

		assert.True(t, customError.IsInvalidState(err))
		store.AccountRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - customer cannot approve", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Approve(context.Background(), domain.Actor{UserID: uuid.New()}, accountID)

		assert.True(t, customError.IsForbidden(err))
	})
}

func TestAccountReject(t *testing.T) {
	admin := domain.Actor{UserID: uuid.New(), Admin: true}
	accountID := uuid.New()

	t.Run("Success - pending account deleted", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusPending}, nil)
		store.AccountRepo.On("Delete", mock.Anything, accountID).Return(nil)
		svc := service.NewAccountService(store, testConfig())

		err := svc.Reject(context.Background(), admin, accountID)

		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("Failure - active account cannot be rejected", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusActive}, nil)
		svc := service.NewAccountService(store, testConfig())

		err := svc.Reject(context.Background(), admin, accountID)

		assert.True(t, customError.IsInvalidState(err))
		store.AccountRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestAccountFreezeUnfreeze(t *testing.T) {
	admin := domain.Actor{UserID: uuid.New(), Admin: true}
	accountID := uuid.New()

	t.Run("Success - active account frozen", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusActive}, nil)
		store.AccountRepo.On("UpdateStatus", mock.Anything, accountID, domain.AccountStatusFrozen).Return(nil)
		svc := service.NewAccountService(store, testConfig())

		account, err := svc.Freeze(context.Background(), admin, accountID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AccountStatusFrozen, account.Status)
	})

	t.Run("Failure - pending account cannot be frozen", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusPending}, nil)
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Freeze(context.Background(), admin, accountID)

		assert.True(t, customError.IsInvalidState(err))
	})

	t.Run("Success - frozen account reactivated", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusFrozen}, nil)
		store.AccountRepo.On("UpdateStatus", mock.Anything, accountID, domain.AccountStatusActive).Return(nil)
		svc := service.NewAccountService(store, testConfig())

		account, err := svc.Unfreeze(context.Background(), admin, accountID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AccountStatusActive, account.Status)
	})

	t.Run("Failure - unfreeze requires frozen", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, Status: domain.AccountStatusActive}, nil)
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Unfreeze(context.Background(), admin, accountID)

		assert.True(t, customError.IsInvalidState(err))
	})
}

func TestAccountCancel(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()

	t.Run("Success - owner cancels own account", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, OwnerID: ownerID, Status: domain.AccountStatusActive}, nil)
		store.AccountRepo.On("UpdateStatus", mock.Anything, accountID, domain.AccountStatusCancelled).Return(nil)
		svc := service.NewAccountService(store, testConfig())

		account, err := svc.Cancel(context.Background(), domain.Actor{UserID: ownerID}, accountID)

		assert.NoError(t, err)
		assert.Equal(t, domain.AccountStatusCancelled, account.Status)
	})

	t.Run("Failure - stranger cannot cancel", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, OwnerID: ownerID, Status: domain.AccountStatusActive}, nil)
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Cancel(context.Background(), domain.Actor{UserID: uuid.New()}, accountID)

		assert.True(t, customError.IsForbidden(err))
	})

	t.Run("Failure - cancelling twice", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID, OwnerID: ownerID, Status: domain.AccountStatusCancelled}, nil)
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Cancel(context.Background(), domain.Actor{UserID: ownerID}, accountID)

		assert.True(t, customError.IsInvalidState(err))
	})
}

func TestAccountCanWithdraw(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockStore)
		amount     string
		expected   bool
		expectErr  bool
	}{
		{
			name: "Active account with sufficient balance",
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("GetByID", mock.Anything, accountID).Return(&domain.Account{
					ID:      accountID,
					Status:  domain.AccountStatusActive,
					Balance: decimal.RequireFromString("100.50"),
				}, nil)
			},
			amount:   "100.50",
			expected: true,
		},
		{
			name: "Active account short of funds",
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("GetByID", mock.Anything, accountID).Return(&domain.Account{
					ID:      accountID,
					Status:  domain.AccountStatusActive,
					Balance: decimal.RequireFromString("100.49"),
				}, nil)
			},
			amount:   "100.50",
			expected: false,
		},
		{
			name: "Frozen account never withdraws",
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("GetByID", mock.Anything, accountID).Return(&domain.Account{
					ID:      accountID,
					Status:  domain.AccountStatusFrozen,
					Balance: decimal.RequireFromString("1000"),
				}, nil)
			},
			amount:   "1",
			expected: false,
		},
		{
			name: "Unknown account reports false without error",
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("GetByID", mock.Anything, accountID).
					Return(nil, customError.WrapNotFound("account", accountID.String()))
			},
			amount:   "1",
			expected: false,
		},
		{
			name: "Database error propagates",
			setupMocks: func(store *mocks.MockStore) {
				store.AccountRepo.On("GetByID", mock.Anything, accountID).
					Return(nil, errors.New("connection reset"))
			},
			amount:    "1",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			tt.setupMocks(store)
			svc := service.NewAccountService(store, testConfig())

			ok, err := svc.CanWithdraw(context.Background(), accountID, decimal.RequireFromString(tt.amount))

			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestAccountDeposit(t *testing.T) {
	admin := domain.Actor{UserID: uuid.New(), Admin: true}
	accountID := uuid.New()

	t.Run("Success - balance credited under lock", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByIDForUpdate", mock.Anything, accountID).Return(&domain.Account{
			ID:      accountID,
			Status:  domain.AccountStatusActive,
			Balance: decimal.RequireFromString("100"),
		}, nil)
		store.AccountRepo.On("UpdateBalance", mock.Anything, accountID, decEq("150.25")).Return(nil)
		svc := service.NewAccountService(store, testConfig())

		account, err := svc.Deposit(context.Background(), admin, accountID, decimal.RequireFromString("50.25"))

		assert.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.RequireFromString("150.25")))
		store.AssertExpectations(t)
	})

	t.Run("Failure - customer cannot deposit", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Deposit(context.Background(), domain.Actor{UserID: uuid.New()}, accountID, decimal.NewFromInt(10))

		assert.True(t, customError.IsForbidden(err))
	})

	t.Run("Failure - amount must be positive", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc := service.NewAccountService(store, testConfig())

		_, err := svc.Deposit(context.Background(), admin, accountID, decimal.Zero)

		assert.True(t, customError.IsValidation(err))
	})
}

func TestAccountDelete(t *testing.T) {
	admin := domain.Actor{UserID: uuid.New(), Admin: true}
	accountID := uuid.New()

	t.Run("Success - account and outgoing transfers removed", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.AccountRepo.On("GetByID", mock.Anything, accountID).
			Return(&domain.Account{ID: accountID}, nil)
		store.TransferRepo.On("DeleteByFromAccount", mock.Anything, accountID).Return(nil)
		store.AccountRepo.On("Delete", mock.Anything, accountID).Return(nil)
		svc := service.NewAccountService(store, testConfig())

		err := svc.Delete(context.Background(), admin, accountID)

		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("Failure - customer cannot delete", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc := service.NewAccountService(store, testConfig())

		err := svc.Delete(context.Background(), domain.Actor{UserID: uuid.New()}, accountID)

		assert.True(t, customError.IsForbidden(err))
	})
}
