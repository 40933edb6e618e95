package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aegisbank/ledger-engine/internal/domain"
	customError "github.com/aegisbank/ledger-engine/pkg/errors"
)

type loanRepository struct {
	ext sqlx.ExtContext
}

const loanColumns = `id, borrower_id, principal, interest_rate, term_months, monthly_payment, status, purpose, admin_notes, created_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.ext.ExecContext(ctx, query,
		loan.ID,
		loan.BorrowerID,
		loan.Principal,
		loan.InterestRate,
		loan.TermMonths,
		loan.MonthlyPayment,
		loan.Status,
		loan.Purpose,
		loan.AdminNotes,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	err := sqlx.GetContext(ctx, r.ext, &loan, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("loan", id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET principal = $2, interest_rate = $3, term_months = $4, monthly_payment = $5,
		    status = $6, purpose = $7, admin_notes = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.ext.ExecContext(ctx, query,
		loan.ID,
		loan.Principal,
		loan.InterestRate,
		loan.TermMonths,
		loan.MonthlyPayment,
		loan.Status,
		loan.Purpose,
		loan.AdminNotes,
		time.Now(),
	)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	return checkAffected(result, "loan", loan.ID.String())
}

func (r *loanRepository) ListByBorrower(ctx context.Context, borrowerID uuid.UUID) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1 ORDER BY created_at DESC`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, r.ext, &loans, query, borrowerID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 ORDER BY created_at DESC`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, r.ext, &loans, query, status); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

func (r *loanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM loans WHERE id = $1`

	result, err := r.ext.ExecContext(ctx, query, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	return checkAffected(result, "loan", id.String())
}
