package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeLoan     AccountType = "LOAN"
)

type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "PENDING"
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusFrozen    AccountStatus = "FROZEN"
	AccountStatusCancelled AccountStatus = "CANCELLED"
)

// accountTransitions is the authoritative lifecycle table. Rejection of a
// PENDING account deletes the record and is therefore not a transition.
var accountTransitions = map[AccountStatus][]AccountStatus{
	AccountStatusPending: {AccountStatusActive, AccountStatusCancelled},
	AccountStatusActive:  {AccountStatusFrozen, AccountStatusCancelled},
	AccountStatusFrozen:  {AccountStatusActive, AccountStatusCancelled},
}

// CanTransitionTo reports whether a status change is legal.
func (s AccountStatus) CanTransitionTo(target AccountStatus) bool {
	for _, allowed := range accountTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeLoan:
		return true
	}
	return false
}

// Account represents a customer account. The IBAN is globally unique and
// immutable once assigned. Balance carries 2 fractional digits; the system
// operates in a single currency.
type Account struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OwnerID   uuid.UUID       `json:"owner_id" db:"owner_id"`
	Type      AccountType     `json:"type" db:"type"`
	IBAN      string          `json:"iban" db:"iban"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Status    AccountStatus   `json:"status" db:"status"`
	Nickname  string          `json:"nickname,omitempty" db:"nickname"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CanWithdraw reports whether amount can be debited without breaking the
// non-negative balance invariant.
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Status == AccountStatusActive && a.Balance.GreaterThanOrEqual(amount)
}

// DTOs for requests and responses

// CreateAccountRequest opens an account. OwnerID is honored for staff
// callers only; customers always open accounts for themselves.
type CreateAccountRequest struct {
	Type     AccountType `json:"type" validate:"required"`
	Nickname string      `json:"nickname,omitempty" validate:"omitempty,max=60"`
	OwnerID  *uuid.UUID  `json:"owner_id,omitempty"`
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}
