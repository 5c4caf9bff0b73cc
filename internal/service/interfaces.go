package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/solademi/account-ledger/internal/domain"
)

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountUser, error)
}

type accountRepo interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	HighestNumber(ctx context.Context) (string, error)
	NumberExists(ctx context.Context, accountNumber string) (bool, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, account *domain.Account) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	HasSuccessfulCancel(ctx context.Context, tx *sql.Tx, originalTransactionID string) (bool, error)
	GetByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, error)
}
