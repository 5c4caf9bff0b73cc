package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/solademi/account-ledger/internal/domain"
)

const transactionColumns = `id, transaction_id, account_id, account_number,
	transaction_type, result, amount, balance_snapshot, related_transaction_id,
	transacted_at`

// TransactionRepository appends to and reads from the ledger. There are no
// update or delete operations; ledger rows are immutable.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, transaction_id, account_id, account_number, transaction_type,
			result, amount, balance_snapshot, related_transaction_id, transacted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.TransactionID, t.AccountID, t.AccountNumber, t.Type,
		t.Result, t.Amount, t.BalanceSnapshot, t.RelatedTransactionID, t.TransactedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, transactionID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByTransactionID: %w", domain.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	return t, nil
}

// HasSuccessfulCancel reports whether a SUCCESS cancel row already references
// the given original transaction. Runs inside the caller's transaction so the
// check and the subsequent cancel insert are atomic.
func (r *TransactionRepository) HasSuccessfulCancel(ctx context.Context, tx *sql.Tx, originalTransactionID string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE related_transaction_id = $1
			  AND transaction_type = 'cancel'
			  AND result = 'success'
		)`, originalTransactionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("HasSuccessfulCancel: %w", err)
	}
	return exists, nil
}

func (r *TransactionRepository) GetByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_number = $1 ORDER BY transacted_at DESC LIMIT $2 OFFSET $3`,
		accountNumber, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByAccountNumber: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByAccountNumber: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByAccountNumber: rows: %w", err)
	}
	return txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.TransactionID, &t.AccountID, &t.AccountNumber,
		&t.Type, &t.Result, &t.Amount, &t.BalanceSnapshot,
		&t.RelatedTransactionID, &t.TransactedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
