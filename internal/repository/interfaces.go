package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aegisbank/ledger-engine/internal/domain"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	// Create creates a new account
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetByIDForUpdate retrieves an account and locks its row for the
	// remainder of the enclosing transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetByIBAN retrieves an account by its IBAN
	GetByIBAN(ctx context.Context, iban string) (*domain.Account, error)

	// GetByIBANForUpdate retrieves an account by IBAN with a row lock
	GetByIBANForUpdate(ctx context.Context, iban string) (*domain.Account, error)

	// ExistsByIBAN reports whether an account with the given IBAN exists
	ExistsByIBAN(ctx context.Context, iban string) (bool, error)

	// UpdateBalance sets the balance of an account
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error

	// UpdateStatus sets the lifecycle status of an account
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error

	// ListByOwner retrieves all accounts owned by a user
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Account, error)

	// ListByStatus retrieves all accounts in a given status
	ListByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Account, error)

	// Delete removes an account record
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransferRepository defines the interface for transfer data operations
type TransferRepository interface {
	// Create creates a new transfer
	Create(ctx context.Context, transfer *domain.Transfer) error

	// GetByID retrieves a transfer by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)

	// GetByIDForUpdate retrieves a transfer and locks its row for the
	// remainder of the enclosing transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)

	// Update updates a transfer
	Update(ctx context.Context, transfer *domain.Transfer) error

	// UpdateStatusIf flips a transfer's status only while it still holds
	// from, reporting an invalid-state error when the row moved on
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to domain.TransferStatus) error

	// ListByAccount retrieves all transfers debiting an account
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transfer, error)

	// ListByAccountBetween retrieves transfers for an account within a
	// creation-time range
	ListByAccountBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*domain.Transfer, error)

	// ListPendingOlderThan retrieves pending transfers created before cutoff
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Transfer, error)

	// Delete removes a transfer record
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByFromAccount removes all transfers debiting an account
	DeleteByFromAccount(ctx context.Context, accountID uuid.UUID) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// Update updates a loan
	Update(ctx context.Context, loan *domain.Loan) error

	// ListByBorrower retrieves all loans of a borrower
	ListByBorrower(ctx context.Context, borrowerID uuid.UUID) ([]*domain.Loan, error)

	// ListByStatus retrieves all loans in a given status
	ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error)

	// Delete removes a loan record
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store bundles the repositories behind a single unit-of-work boundary.
// Atomic runs fn against a store whose repositories share one database
// transaction: either every mutation inside fn is durably applied, or none.
type Store interface {
	Accounts() AccountRepository
	Transfers() TransferRepository
	Loans() LoanRepository
	Atomic(ctx context.Context, fn func(Store) error) error
}
