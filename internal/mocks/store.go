package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/repository"
)

// MockStore bundles mocked repositories behind the Store interface. Atomic
// runs fn against the same store, so transactional service code can be
// exercised without a database.
type MockStore struct {
	AccountRepo  *MockAccountRepository
	TransferRepo *MockTransferRepository
	LoanRepo     *MockLoanRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		AccountRepo:  &MockAccountRepository{},
		TransferRepo: &MockTransferRepository{},
		LoanRepo:     &MockLoanRepository{},
	}
}

func (m *MockStore) Accounts() repository.AccountRepository   { return m.AccountRepo }
func (m *MockStore) Transfers() repository.TransferRepository { return m.TransferRepo }
func (m *MockStore) Loans() repository.LoanRepository         { return m.LoanRepo }

func (m *MockStore) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

// AssertExpectations asserts expectations on all underlying repository mocks.
func (m *MockStore) AssertExpectations(t mock.TestingT) bool {
	ok := m.AccountRepo.AssertExpectations(t)
	ok = m.TransferRepo.AssertExpectations(t) && ok
	ok = m.LoanRepo.AssertExpectations(t) && ok
	return ok
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if account, ok := args.Get(0).(*domain.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if account, ok := args.Get(0).(*domain.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	args := m.Called(ctx, iban)
	if account, ok := args.Get(0).(*domain.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByIBANForUpdate(ctx context.Context, iban string) (*domain.Account, error) {
	args := m.Called(ctx, iban)
	if account, ok := args.Get(0).(*domain.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) ExistsByIBAN(ctx context.Context, iban string) (bool, error) {
	args := m.Called(ctx, iban)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, id, balance)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockAccountRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Account, error) {
	args := m.Called(ctx, ownerID)
	if accounts, ok := args.Get(0).([]*domain.Account); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) ListByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Account, error) {
	args := m.Called(ctx, status)
	if accounts, ok := args.Get(0).([]*domain.Account); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, transfer *domain.Transfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	args := m.Called(ctx, id)
	if transfer, ok := args.Get(0).(*domain.Transfer); ok {
		return transfer, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	args := m.Called(ctx, id)
	if transfer, ok := args.Get(0).(*domain.Transfer); ok {
		return transfer, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) Update(ctx context.Context, transfer *domain.Transfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func (m *MockTransferRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to domain.TransferStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockTransferRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transfer, error) {
	args := m.Called(ctx, accountID)
	if transfers, ok := args.Get(0).([]*domain.Transfer); ok {
		return transfers, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) ListByAccountBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*domain.Transfer, error) {
	args := m.Called(ctx, accountID, from, to)
	if transfers, ok := args.Get(0).([]*domain.Transfer); ok {
		return transfers, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Transfer, error) {
	args := m.Called(ctx, cutoff)
	if transfers, ok := args.Get(0).([]*domain.Transfer); ok {
		return transfers, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTransferRepository) DeleteByFromAccount(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if loan, ok := args.Get(0).(*domain.Loan); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) ListByBorrower(ctx context.Context, borrowerID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, borrowerID)
	if loans, ok := args.Get(0).([]*domain.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	args := m.Called(ctx, status)
	if loans, ok := args.Get(0).([]*domain.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
