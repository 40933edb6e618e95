package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	customError "github.com/aegisbank/ledger-engine/pkg/errors"
)

type sqlStore struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewStore creates a Store backed by Postgres.
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db, ext: db}
}

func (s *sqlStore) Accounts() AccountRepository {
	return &accountRepository{ext: s.ext}
}

func (s *sqlStore) Transfers() TransferRepository {
	return &transferRepository{ext: s.ext}
}

func (s *sqlStore) Loans() LoanRepository {
	return &loanRepository{ext: s.ext}
}

// Atomic runs fn inside a database transaction. Nested calls join the
// transaction already in flight.
func (s *sqlStore) Atomic(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	if err := fn(&sqlStore{db: s.db, ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}
