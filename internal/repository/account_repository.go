package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/aegisbank/ledger-engine/internal/domain"
	customError "github.com/aegisbank/ledger-engine/pkg/errors"
)

type accountRepository struct {
	ext sqlx.ExtContext
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, owner_id, type, iban, balance, status, nickname, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.ext.ExecContext(ctx, query,
		account.ID,
		account.OwnerID,
		account.Type,
		account.IBAN,
		account.Balance,
		account.Status,
		account.Nickname,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return err
}

const accountColumns = `id, owner_id, type, iban, balance, status, nickname, created_at, updated_at`

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id.String(), id)
}

func (r *accountRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id.String(), id)
}

func (r *accountRepository) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1`
	return r.getOne(ctx, query, iban, iban)
}

func (r *accountRepository) GetByIBANForUpdate(ctx context.Context, iban string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1 FOR UPDATE`
	return r.getOne(ctx, query, iban, iban)
}

func (r *accountRepository) getOne(ctx context.Context, query, key string, arg interface{}) (*domain.Account, error) {
	var account domain.Account
	err := sqlx.GetContext(ctx, r.ext, &account, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("account", key)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return &account, nil
}

func (r *accountRepository) ExistsByIBAN(ctx context.Context, iban string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE iban = $1)`

	var exists bool
	err := sqlx.GetContext(ctx, r.ext, &exists, query, iban)
	if err != nil {
		return false, customError.WrapDatabaseError(err)
	}
	return exists, nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`

	result, err := r.ext.ExecContext(ctx, query, id, balance, time.Now())
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	return checkAffected(result, "account", id.String())
}

func (r *accountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.ext.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	return checkAffected(result, "account", id.String())
}

func (r *accountRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 ORDER BY created_at`

	var accounts []*domain.Account
	if err := sqlx.SelectContext(ctx, r.ext, &accounts, query, ownerID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return accounts, nil
}

func (r *accountRepository) ListByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE status = $1 ORDER BY created_at`

	var accounts []*domain.Account
	if err := sqlx.SelectContext(ctx, r.ext, &accounts, query, status); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return accounts, nil
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.ext.ExecContext(ctx, query, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	return checkAffected(result, "account", id.String())
}

func checkAffected(result sql.Result, resource, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if affected == 0 {
		return customError.WrapNotFound(resource, id)
	}
	return nil
}
