package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusApproved  LoanStatus = "APPROVED"
	LoanStatusRejected  LoanStatus = "REJECTED"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusPaid      LoanStatus = "PAID"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// loanTransitions is the authoritative lifecycle table. ACTIVE and PAID are
// reachable only through administrative updates; REJECTED and CANCELLED are
// terminal.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending:  {LoanStatusApproved, LoanStatusRejected, LoanStatusCancelled},
	LoanStatusApproved: {LoanStatusActive, LoanStatusCancelled},
	LoanStatusActive:   {LoanStatusPaid, LoanStatusCancelled},
	LoanStatusPaid:     {LoanStatusActive},
}

// CanTransitionTo reports whether a status change is legal.
func (s LoanStatus) CanTransitionTo(target LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func (s LoanStatus) Terminal() bool {
	return len(loanTransitions[s]) == 0
}

// Loan represents a credit request. InterestRate is an annual fraction
// (0.05 means 5%). MonthlyPayment is recomputed from principal, rate and
// term whenever those change and again on approval.
type Loan struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	BorrowerID     uuid.UUID       `json:"borrower_id" db:"borrower_id"`
	Principal      decimal.Decimal `json:"principal" db:"principal"`
	InterestRate   decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	TermMonths     int             `json:"term_months" db:"term_months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment" db:"monthly_payment"`
	Status         LoanStatus      `json:"status" db:"status"`
	Purpose        string          `json:"purpose,omitempty" db:"purpose"`
	AdminNotes     string          `json:"admin_notes,omitempty" db:"admin_notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type LoanRequest struct {
	Principal    decimal.Decimal `json:"principal" validate:"required"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months" validate:"required,gte=1,lte=360"`
	Purpose      string          `json:"purpose,omitempty"`
}

type LoanDecisionRequest struct {
	Status     LoanStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	AdminNotes string     `json:"admin_notes,omitempty"`
}

type LoanCancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// LoanAdminUpdate carries the fields staff may patch directly. Nil fields
// are left untouched.
type LoanAdminUpdate struct {
	Status       *LoanStatus      `json:"status,omitempty"`
	Principal    *decimal.Decimal `json:"principal,omitempty"`
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
	TermMonths   *int             `json:"term_months,omitempty"`
	AdminNotes   *string          `json:"admin_notes,omitempty"`
}
