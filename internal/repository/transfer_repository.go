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

type transferRepository struct {
	ext sqlx.ExtContext
}

const transferColumns = `id, from_account_id, to_iban, amount, fee, total_amount, type, status, description, category, reference, created_at, updated_at`

func (r *transferRepository) Create(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.ext.ExecContext(ctx, query,
		transfer.ID,
		transfer.FromAccountID,
		transfer.ToIBAN,
		transfer.Amount,
		transfer.Fee,
		transfer.TotalAmount,
		transfer.Type,
		transfer.Status,
		transfer.Description,
		transfer.Category,
		transfer.Reference,
		transfer.CreatedAt,
		transfer.UpdatedAt,
	)

	return err
}

func (r *transferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	var transfer domain.Transfer
	err := sqlx.GetContext(ctx, r.ext, &transfer, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("transfer", id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return &transfer, nil
}

func (r *transferRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 FOR UPDATE`

	var transfer domain.Transfer
	err := sqlx.GetContext(ctx, r.ext, &transfer, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("transfer", id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return &transfer, nil
}

func (r *transferRepository) Update(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		UPDATE transfers
		SET to_iban = $2, amount = $3, fee = $4, total_amount = $5, type = $6,
		    status = $7, description = $8, category = $9, reference = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.ext.ExecContext(ctx, query,
		transfer.ID,
		transfer.ToIBAN,
		transfer.Amount,
		transfer.Fee,
		transfer.TotalAmount,
		transfer.Type,
		transfer.Status,
		transfer.Description,
		transfer.Category,
		transfer.Reference,
		time.Now(),
	)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	return checkAffected(result, "transfer", transfer.ID.String())
}

func (r *transferRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to domain.TransferStatus) error {
	query := `UPDATE transfers SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	result, err := r.ext.ExecContext(ctx, query, id, from, to, time.Now())
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if affected == 0 {
		return customError.WrapInvalidState("transfer " + id.String() + " is no longer " + string(from))
	}
	return nil
}

func (r *transferRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE from_account_id = $1 ORDER BY created_at DESC`

	var transfers []*domain.Transfer
	if err := sqlx.SelectContext(ctx, r.ext, &transfers, query, accountID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return transfers, nil
}

func (r *transferRepository) ListByAccountBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + ` FROM transfers
		WHERE from_account_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at
	`

	var transfers []*domain.Transfer
	if err := sqlx.SelectContext(ctx, r.ext, &transfers, query, accountID, from, to); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return transfers, nil
}

func (r *transferRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + ` FROM transfers
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`

	var transfers []*domain.Transfer
	if err := sqlx.SelectContext(ctx, r.ext, &transfers, query, domain.TransferStatusPending, cutoff); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return transfers, nil
}

func (r *transferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM transfers WHERE id = $1`

	result, err := r.ext.ExecContext(ctx, query, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	return checkAffected(result, "transfer", id.String())
}

func (r *transferRepository) DeleteByFromAccount(ctx context.Context, accountID uuid.UUID) error {
	query := `DELETE FROM transfers WHERE from_account_id = $1`

	if _, err := r.ext.ExecContext(ctx, query, accountID); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}
