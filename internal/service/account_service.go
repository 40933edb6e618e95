package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aegisbank/ledger-engine/internal/config"
	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/repository"
	customError "github.com/aegisbank/ledger-engine/pkg/errors"
	"github.com/aegisbank/ledger-engine/pkg/iban"
)

// AccountService provisions accounts and drives their lifecycle.
type AccountService struct {
	Store  repository.Store
	Config *config.Config
}

func NewAccountService(store repository.Store, cfg *config.Config) *AccountService {
	return &AccountService{
		Store:  store,
		Config: cfg,
	}
}

// Create provisions a new account with a unique IBAN and zero balance.
// Admin-created accounts start ACTIVE; self-service accounts start PENDING
// until approved.
func (s *AccountService) Create(ctx context.Context, actor domain.Actor, ownerID uuid.UUID, accountType domain.AccountType, nickname string) (*domain.Account, error) {
	if ownerID == uuid.Nil {
		return nil, customError.WrapValidation("owner is required")
	}
	if !domain.ValidAccountType(accountType) {
		return nil, customError.WrapValidation("account type must be CHECKING, SAVINGS or LOAN")
	}
	if !actor.CanAccess(ownerID) {
		return nil, customError.WrapForbidden("accounts can only be opened for yourself")
	}

	candidate, err := s.uniqueIBAN(ctx)
	if err != nil {
		return nil, err
	}

	status := domain.AccountStatusPending
	if actor.Admin {
		status = domain.AccountStatusActive
	}

	now := time.Now()
	account := &domain.Account{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Type:      accountType,
		IBAN:      candidate,
		Balance:   decimal.Zero,
		Status:    status,
		Nickname:  nickname,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Accounts().Create(ctx, account); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return account, nil
}

// uniqueIBAN samples IBAN candidates until one is free, up to the configured
// attempt cap. The unique constraint on accounts.iban remains the final guard
// against a concurrent claim of the same candidate.
func (s *AccountService) uniqueIBAN(ctx context.Context) (string, error) {
	attempts := s.Config.Business.IBANMaxAttempts
	for i := 0; i < attempts; i++ {
		candidate := iban.Generate()
		exists, err := s.Store.Accounts().ExistsByIBAN(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", customError.WrapResourceExhausted("could not allocate a unique IBAN")
}

// Approve activates a pending account.
func (s *AccountService) Approve(ctx context.Context, actor domain.Actor, accountID uuid.UUID) (*domain.Account, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can approve accounts")
	}

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != domain.AccountStatusPending {
		return nil, customError.WrapInvalidState("account is not pending approval")
	}

	return s.transition(ctx, account, domain.AccountStatusActive)
}

// Reject removes a pending account. Rejection is destructive: the record is
// deleted, not flagged.
func (s *AccountService) Reject(ctx context.Context, actor domain.Actor, accountID uuid.UUID) error {
	if !actor.Admin {
		return customError.WrapForbidden("only staff can reject accounts")
	}

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status != domain.AccountStatusPending {
		return customError.WrapInvalidState("account is not pending approval")
	}

	return s.Store.Accounts().Delete(ctx, accountID)
}

// Freeze suspends an active account.
func (s *AccountService) Freeze(ctx context.Context, actor domain.Actor, accountID uuid.UUID) (*domain.Account, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can freeze accounts")
	}

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, account, domain.AccountStatusFrozen)
}

// Unfreeze reactivates a frozen account.
func (s *AccountService) Unfreeze(ctx context.Context, actor domain.Actor, accountID uuid.UUID) (*domain.Account, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can unfreeze accounts")
	}

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != domain.AccountStatusFrozen {
		return nil, customError.WrapInvalidState("account is not frozen")
	}
	return s.transition(ctx, account, domain.AccountStatusActive)
}

// Cancel closes an account. Pending transfers referencing the account are
// left untouched.
func (s *AccountService) Cancel(ctx context.Context, actor domain.Actor, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(account.OwnerID) {
		return nil, customError.WrapForbidden("account not owned by caller")
	}
	return s.transition(ctx, account, domain.AccountStatusCancelled)
}

func (s *AccountService) transition(ctx context.Context, account *domain.Account, target domain.AccountStatus) (*domain.Account, error) {
	if !account.Status.CanTransitionTo(target) {
		return nil, customError.WrapInvalidState(
			"account cannot move from " + string(account.Status) + " to " + string(target))
	}
	if err := s.Store.Accounts().UpdateStatus(ctx, account.ID, target); err != nil {
		return nil, err
	}
	account.Status = target
	return account, nil
}

// CanWithdraw reports whether an account is active and holds at least amount.
func (s *AccountService) CanWithdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (bool, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if customError.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return account.CanWithdraw(amount), nil
}

// Deposit credits an account directly. This is an administrative operation;
// customer money movement goes through transfers.
func (s *AccountService) Deposit(ctx context.Context, actor domain.Actor, accountID uuid.UUID, amount decimal.Decimal) (*domain.Account, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can deposit directly")
	}
	if !amount.IsPositive() {
		return nil, customError.WrapValidation("deposit amount must be greater than 0")
	}

	var account *domain.Account
	err := s.Store.Atomic(ctx, func(st repository.Store) error {
		locked, err := st.Accounts().GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		locked.Balance = locked.Balance.Add(amount)
		if err := st.Accounts().UpdateBalance(ctx, locked.ID, locked.Balance); err != nil {
			return err
		}
		account = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetByID returns an account visible to the actor.
func (s *AccountService) GetByID(ctx context.Context, actor domain.Actor, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(account.OwnerID) {
		return nil, customError.WrapForbidden("account not owned by caller")
	}
	return account, nil
}

// ListByOwner returns all accounts of a user.
func (s *AccountService) ListByOwner(ctx context.Context, actor domain.Actor, ownerID uuid.UUID) ([]*domain.Account, error) {
	if !actor.CanAccess(ownerID) {
		return nil, customError.WrapForbidden("accounts not owned by caller")
	}
	return s.Store.Accounts().ListByOwner(ctx, ownerID)
}

// ListPending returns the staff approval queue.
func (s *AccountService) ListPending(ctx context.Context, actor domain.Actor) ([]*domain.Account, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can list pending accounts")
	}
	return s.Store.Accounts().ListByStatus(ctx, domain.AccountStatusPending)
}

// Delete removes an account and every transfer that debited it. Incoming
// transfers reference the IBAN only and are kept.
func (s *AccountService) Delete(ctx context.Context, actor domain.Actor, accountID uuid.UUID) error {
	if !actor.Admin {
		return customError.WrapForbidden("only staff can delete accounts")
	}

	return s.Store.Atomic(ctx, func(st repository.Store) error {
		if _, err := st.Accounts().GetByID(ctx, accountID); err != nil {
			return err
		}
		if err := st.Transfers().DeleteByFromAccount(ctx, accountID); err != nil {
			return err
		}
		return st.Accounts().Delete(ctx, accountID)
	})
}
