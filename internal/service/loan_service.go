package service

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aegisbank/ledger-engine/internal/config"
	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/internal/repository"
	"github.com/aegisbank/ledger-engine/pkg/amortization"
	customError "github.com/aegisbank/ledger-engine/pkg/errors"
)

const loanNicknameMaxLen = 20

// LoanService drives the loan lifecycle and materializes approved loans
// into funded accounts.
type LoanService struct {
	Store    repository.Store
	Accounts *AccountService
	Config   *config.Config
}

func NewLoanService(store repository.Store, accounts *AccountService, cfg *config.Config) *LoanService {
	return &LoanService{
		Store:    store,
		Accounts: accounts,
		Config:   cfg,
	}
}

// Request files a new loan application. The monthly payment stored here is
// provisional; it is recomputed on approval.
func (s *LoanService) Request(ctx context.Context, actor domain.Actor, request *domain.LoanRequest) (*domain.Loan, error) {
	if err := s.validateTerms(request.Principal, request.InterestRate, request.TermMonths); err != nil {
		return nil, err
	}

	now := time.Now()
	loan := &domain.Loan{
		ID:             uuid.New(),
		BorrowerID:     actor.UserID,
		Principal:      request.Principal,
		InterestRate:   request.InterestRate,
		TermMonths:     request.TermMonths,
		MonthlyPayment: amortization.MonthlyPayment(request.Principal, request.InterestRate, request.TermMonths),
		Status:         domain.LoanStatusPending,
		Purpose:        request.Purpose,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Store.Loans().Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *LoanService) validateTerms(principal, rate decimal.Decimal, termMonths int) error {
	if !principal.IsPositive() {
		return customError.WrapValidation("principal must be greater than 0")
	}
	if principal.GreaterThan(s.Config.GetMaxLoanPrincipal()) {
		return customError.WrapValidation("principal exceeds the maximum loan amount of " + s.Config.Business.MaxLoanPrincipal)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return customError.WrapValidation("interest rate must be between 0 and 1")
	}
	if termMonths < 1 || termMonths > s.Config.Business.MaxLoanTermMonths {
		return customError.WrapValidation("term must be between 1 and 360 months")
	}
	return nil
}

// Decide records a staff decision. Approval recomputes the payment from the
// current terms and materializes a funded LOAN account for the borrower; a
// materialization failure is logged but never fails the approval itself.
// APPROVED and REJECTED are accepted regardless of the loan's current status
// so staff can correct an earlier decision.
func (s *LoanService) Decide(ctx context.Context, actor domain.Actor, loanID uuid.UUID, status domain.LoanStatus, notes string) (*domain.Loan, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can decide loans")
	}
	if status != domain.LoanStatusApproved && status != domain.LoanStatusRejected {
		return nil, customError.WrapValidation("decision must be APPROVED or REJECTED")
	}

	loan, err := s.Store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	loan.Status = status
	loan.AdminNotes = notes

	if status == domain.LoanStatusApproved {
		loan.MonthlyPayment = amortization.MonthlyPayment(loan.Principal, loan.InterestRate, loan.TermMonths)
	}

	if err := s.Store.Loans().Update(ctx, loan); err != nil {
		return nil, err
	}

	if status == domain.LoanStatusApproved {
		s.materialize(ctx, actor, loan)
	}
	return loan, nil
}

// materialize creates the funded account for an approved loan. Best effort:
// the loan stays APPROVED even when account creation fails.
func (s *LoanService) materialize(ctx context.Context, actor domain.Actor, loan *domain.Loan) {
	nickname := loanNickname(loan)

	account, err := s.Accounts.Create(ctx, actor, loan.BorrowerID, domain.AccountTypeLoan, nickname)
	if err != nil {
		log.Printf("loan %s: failed to create loan account: %v", loan.ID, err)
		return
	}

	if err := s.Store.Accounts().UpdateBalance(ctx, account.ID, loan.Principal); err != nil {
		log.Printf("loan %s: failed to fund loan account %s: %v", loan.ID, account.IBAN, err)
		return
	}

	log.Printf("loan %s: created loan account %s (%s) funded with %s, repaying %s over %d months",
		loan.ID, account.IBAN, nickname, loan.Principal,
		amortization.TotalRepayment(loan.Principal, loan.InterestRate, loan.TermMonths), loan.TermMonths)
}

// loanNickname derives the account label from the loan purpose: capitalized,
// truncated to 20 characters, suffixed "Loan". Loans without a purpose fall
// back to a label carrying the loan id.
func loanNickname(loan *domain.Loan) string {
	purpose := strings.TrimSpace(loan.Purpose)
	if purpose == "" {
		return "Personal Loan #" + loan.ID.String()
	}

	// Capitalize and truncate on rune boundaries; purposes are free text
	// and may open with a multi-byte character.
	runes := []rune(strings.ToLower(purpose))
	runes[0] = unicode.ToUpper(runes[0])
	if len(runes) > loanNicknameMaxLen {
		runes = runes[:loanNicknameMaxLen]
	}
	return string(runes) + " Loan"
}

// loanTransition validates a status flip against the loan lifecycle and
// applies it in memory. The caller persists the change.
func loanTransition(loan *domain.Loan, target domain.LoanStatus) error {
	if !loan.Status.CanTransitionTo(target) {
		return customError.WrapInvalidState("loan cannot move from " + string(loan.Status) + " to " + string(target))
	}
	loan.Status = target
	return nil
}

// Cancel closes a loan with a reason. Closed loans (REJECTED, CANCELLED)
// and PAID loans cannot be cancelled. The materialized account, if any, is
// left untouched.
func (s *LoanService) Cancel(ctx context.Context, actor domain.Actor, loanID uuid.UUID, reason string) (*domain.Loan, error) {
	loan, err := s.Store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(loan.BorrowerID) {
		return nil, customError.WrapForbidden("loan not owned by caller")
	}
	if loan.Status.Terminal() {
		return nil, customError.WrapInvalidState("loan is already closed")
	}
	if err := loanTransition(loan, domain.LoanStatusCancelled); err != nil {
		return nil, err
	}

	if reason == "" {
		reason = "Cancelled"
	}
	loan.AdminNotes = reason

	if err := s.Store.Loans().Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Delete removes a loan that is not ACTIVE or PAID. Staff deletion also
// best-effort removes any materialized loan account whose nickname carries
// the loan id.
func (s *LoanService) Delete(ctx context.Context, actor domain.Actor, loanID uuid.UUID) error {
	loan, err := s.Store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(loan.BorrowerID) {
		return customError.WrapForbidden("loan not owned by caller")
	}
	if loan.Status == domain.LoanStatusActive || loan.Status == domain.LoanStatusPaid {
		return customError.WrapInvalidState("active or paid loans cannot be deleted")
	}

	if actor.Admin {
		s.deleteMaterializedAccounts(ctx, actor, loan)
	}

	return s.Store.Loans().Delete(ctx, loanID)
}

func (s *LoanService) deleteMaterializedAccounts(ctx context.Context, actor domain.Actor, loan *domain.Loan) {
	accounts, err := s.Store.Accounts().ListByOwner(ctx, loan.BorrowerID)
	if err != nil {
		log.Printf("loan %s: failed to list borrower accounts: %v", loan.ID, err)
		return
	}

	marker := "Loan #" + loan.ID.String()
	for _, account := range accounts {
		if account.Type != domain.AccountTypeLoan || !strings.Contains(account.Nickname, marker) {
			continue
		}
		if err := s.Accounts.Delete(ctx, actor, account.ID); err != nil {
			log.Printf("loan %s: failed to delete loan account %s: %v", loan.ID, account.IBAN, err)
		}
	}
}

// AdminUpdate patches loan fields directly. This is the only route to the
// ACTIVE and PAID statuses. The payment is recomputed whenever principal,
// rate or term change.
func (s *LoanService) AdminUpdate(ctx context.Context, actor domain.Actor, loanID uuid.UUID, updates *domain.LoanAdminUpdate) (*domain.Loan, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can update loans directly")
	}

	loan, err := s.Store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	termsChanged := false
	if updates.Principal != nil {
		loan.Principal = *updates.Principal
		termsChanged = true
	}
	if updates.InterestRate != nil {
		loan.InterestRate = *updates.InterestRate
		termsChanged = true
	}
	if updates.TermMonths != nil {
		loan.TermMonths = *updates.TermMonths
		termsChanged = true
	}
	if termsChanged {
		if err := s.validateTerms(loan.Principal, loan.InterestRate, loan.TermMonths); err != nil {
			return nil, err
		}
		loan.MonthlyPayment = amortization.MonthlyPayment(loan.Principal, loan.InterestRate, loan.TermMonths)
	}

	if updates.Status != nil {
		loan.Status = *updates.Status
	}
	if updates.AdminNotes != nil {
		loan.AdminNotes = *updates.AdminNotes
	}

	if err := s.Store.Loans().Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Get returns a loan visible to the actor.
func (s *LoanService) Get(ctx context.Context, actor domain.Actor, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.Store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(loan.BorrowerID) {
		return nil, customError.WrapForbidden("loan not owned by caller")
	}
	return loan, nil
}

// ListByBorrower returns all loans of a borrower.
func (s *LoanService) ListByBorrower(ctx context.Context, actor domain.Actor, borrowerID uuid.UUID) ([]*domain.Loan, error) {
	if !actor.CanAccess(borrowerID) {
		return nil, customError.WrapForbidden("loans not owned by caller")
	}
	return s.Store.Loans().ListByBorrower(ctx, borrowerID)
}

// ListByStatus returns the loans in a given status for staff review.
func (s *LoanService) ListByStatus(ctx context.Context, actor domain.Actor, status domain.LoanStatus) ([]*domain.Loan, error) {
	if !actor.Admin {
		return nil, customError.WrapForbidden("only staff can list loans by status")
	}
	return s.Store.Loans().ListByStatus(ctx, status)
}
