package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccountStatusTransitions(t *testing.T) {
	tests := []struct {
		from    AccountStatus
		to      AccountStatus
		allowed bool
	}{
		{AccountStatusPending, AccountStatusActive, true},
		{AccountStatusPending, AccountStatusCancelled, true},
		{AccountStatusPending, AccountStatusFrozen, false},
		{AccountStatusActive, AccountStatusFrozen, true},
		{AccountStatusActive, AccountStatusCancelled, true},
		{AccountStatusActive, AccountStatusPending, false},
		{AccountStatusFrozen, AccountStatusActive, true},
		{AccountStatusFrozen, AccountStatusFrozen, false},
		{AccountStatusCancelled, AccountStatusActive, false},
		{AccountStatusCancelled, AccountStatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTransferStatusTransitions(t *testing.T) {
	tests := []struct {
		from    TransferStatus
		to      TransferStatus
		allowed bool
	}{
		{TransferStatusPending, TransferStatusCompleted, true},
		{TransferStatusPending, TransferStatusFailed, true},
		{TransferStatusPending, TransferStatusCancelled, true},
		{TransferStatusCompleted, TransferStatusCancelled, true},
		{TransferStatusCompleted, TransferStatusPending, false},
		{TransferStatusFailed, TransferStatusPending, false},
		{TransferStatusFailed, TransferStatusCancelled, false},
		{TransferStatusCancelled, TransferStatusCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestLoanStatusTransitions(t *testing.T) {
	tests := []struct {
		from    LoanStatus
		to      LoanStatus
		allowed bool
	}{
		{LoanStatusPending, LoanStatusApproved, true},
		{LoanStatusPending, LoanStatusRejected, true},
		{LoanStatusPending, LoanStatusCancelled, true},
		{LoanStatusPending, LoanStatusPaid, false},
		{LoanStatusApproved, LoanStatusActive, true},
		{LoanStatusApproved, LoanStatusCancelled, true},
		{LoanStatusActive, LoanStatusPaid, true},
		{LoanStatusActive, LoanStatusCancelled, true},
		{LoanStatusPaid, LoanStatusActive, true},
		{LoanStatusRejected, LoanStatusPending, false},
		{LoanStatusCancelled, LoanStatusActive, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestLoanStatusTerminal(t *testing.T) {
	assert.True(t, LoanStatusRejected.Terminal())
	assert.True(t, LoanStatusCancelled.Terminal())
	assert.False(t, LoanStatusPending.Terminal())
	assert.False(t, LoanStatusActive.Terminal())
}

func TestAccountCanWithdraw(t *testing.T) {
	account := &Account{
		Status:  AccountStatusActive,
		Balance: decimal.NewFromInt(100),
	}

	assert.True(t, account.CanWithdraw(decimal.NewFromInt(100)))
	assert.True(t, account.CanWithdraw(decimal.NewFromInt(50)))
	assert.False(t, account.CanWithdraw(decimal.RequireFromString("100.01")))

	account.Status = AccountStatusFrozen
	assert.False(t, account.CanWithdraw(decimal.NewFromInt(1)))

	account.Status = AccountStatusPending
	assert.False(t, account.CanWithdraw(decimal.NewFromInt(1)))
}

func TestActorAccess(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	assert.True(t, Actor{UserID: owner}.CanAccess(owner))
	assert.False(t, Actor{UserID: other}.CanAccess(owner))
	assert.True(t, Actor{UserID: other, Admin: true}.CanAccess(owner))
}
