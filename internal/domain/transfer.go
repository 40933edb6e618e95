package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferType string

const (
	// TransferTypeExternal is a transfer to an account outside this bank.
	TransferTypeExternal TransferType = "EXTERNAL"
	// TransferTypeInternal is a transfer to another customer of this bank.
	TransferTypeInternal TransferType = "INTERNAL"
	// TransferTypeInterAccount is a transfer between the sender's own accounts.
	TransferTypeInterAccount TransferType = "INTER_ACCOUNT"
)

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusFailed    TransferStatus = "FAILED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// transferTransitions is the authoritative lifecycle table. A completed
// transfer moves to CANCELLED on reversal; FAILED and CANCELLED are terminal.
var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusPending:   {TransferStatusCompleted, TransferStatusFailed, TransferStatusCancelled},
	TransferStatusCompleted: {TransferStatusCancelled},
}

// CanTransitionTo reports whether a status change is legal.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ReversedMarker is appended to a transfer's description on reversal.
const ReversedMarker = " [REVERSED]"

// Transfer represents a money movement out of one of this bank's accounts.
// The destination is referenced by IBAN only: it may belong to another bank
// or stop existing between creation and settlement. Type is classified once
// at creation and stays authoritative for fee purposes.
type Transfer struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	FromAccountID uuid.UUID       `json:"from_account_id" db:"from_account_id"`
	ToIBAN        string          `json:"to_iban" db:"to_iban"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Fee           decimal.Decimal `json:"fee" db:"fee"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Type          TransferType    `json:"type" db:"type"`
	Status        TransferStatus  `json:"status" db:"status"`
	Description   string          `json:"description,omitempty" db:"description"`
	Category      string          `json:"category,omitempty" db:"category"`
	Reference     string          `json:"reference,omitempty" db:"reference"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateTransferRequest struct {
	FromAccountID uuid.UUID       `json:"from_account_id" validate:"required"`
	ToIBAN        string          `json:"to_iban" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
}

// UpdateTransferRequest carries the mutable fields of a pending transfer.
// Nil fields are left untouched.
type UpdateTransferRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	ToIBAN      *string          `json:"to_iban,omitempty"`
}
