package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solademi/account-ledger/internal/domain"
	"github.com/solademi/account-ledger/internal/lock"
	"github.com/solademi/account-ledger/internal/logging"
)

// TransactionService is the balance transaction engine. Debits ("use") and
// reversals ("cancel") against one account are serialized: each operation
// holds the account's named lock and a database transaction with the account
// row locked for its whole read-validate-write sequence, so the balance
// update and the ledger append land atomically.
//
// Validation failures are returned to the caller unrecorded; the boundary
// layer invokes RecordFailedUse/RecordFailedCancel afterwards. Keeping the
// failure write out of the engine keeps the success path side-effect-minimal.
type TransactionService struct {
	users        userRepo
	accounts     accountRepo
	transactions transactionRepo
	locker       lock.Locker
	db           *sql.DB
}

func NewTransactionService(users userRepo, accounts accountRepo, transactions transactionRepo, locker lock.Locker, db *sql.DB) *TransactionService {
	return &TransactionService{
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		locker:       locker,
		db:           db,
	}
}

func (s *TransactionService) UseBalance(ctx context.Context, userID uuid.UUID, accountNumber string, amount int64) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}

	var txn *domain.Transaction
	err = s.locker.WithLock(ctx, lock.AccountKey(accountNumber), func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		account, err := s.accounts.GetByNumberForUpdate(ctx, tx, accountNumber)
		if err != nil {
			return err
		}

		if err := validateUse(user, account, amount); err != nil {
			return err
		}

		if err := account.Debit(amount); err != nil {
			return err
		}

		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
			return err
		}

		txn = newTransaction(account, domain.TransactionTypeUse, domain.TransactionResultSuccess, amount, nil)
		if err := s.transactions.Create(ctx, tx, txn); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}

	log.Info("balance used",
		"transaction_id", txn.TransactionID,
		"account_number", accountNumber,
		"amount", amount,
		"balance", txn.BalanceSnapshot,
	)

	return txn, nil
}

func (s *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	original, err := s.transactions.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	var txn *domain.Transaction
	err = s.locker.WithLock(ctx, lock.AccountKey(accountNumber), func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		account, err := s.accounts.GetByNumberForUpdate(ctx, tx, accountNumber)
		if err != nil {
			return err
		}

		if err := validateCancel(original, account, amount); err != nil {
			return err
		}

		canceled, err := s.transactions.HasSuccessfulCancel(ctx, tx, original.TransactionID)
		if err != nil {
			return err
		}
		if canceled {
			return fmt.Errorf("transaction %s: %w", original.TransactionID, domain.ErrTransactionAlreadyCanceled)
		}

		if err := account.Credit(amount); err != nil {
			return err
		}

		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
			return err
		}

		txn = newTransaction(account, domain.TransactionTypeCancel, domain.TransactionResultSuccess, amount, &original.TransactionID)
		if err := s.transactions.Create(ctx, tx, txn); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	log.Info("balance use canceled",
		"transaction_id", txn.TransactionID,
		"original_transaction_id", original.TransactionID,
		"account_number", accountNumber,
		"amount", amount,
		"balance", txn.BalanceSnapshot,
	)

	return txn, nil
}

// RecordFailedUse appends a FAIL use row with the account's current,
// unchanged balance as the snapshot. A missing account is the one failure
// that stays unrecorded; recording it would recurse.
func (s *TransactionService) RecordFailedUse(ctx context.Context, accountNumber string, amount int64) error {
	return s.recordFailure(ctx, accountNumber, amount, domain.TransactionTypeUse)
}

// RecordFailedCancel appends a FAIL cancel row, see RecordFailedUse.
func (s *TransactionService) RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) error {
	return s.recordFailure(ctx, accountNumber, amount, domain.TransactionTypeCancel)
}

func (s *TransactionService) recordFailure(ctx context.Context, accountNumber string, amount int64, txType domain.TransactionType) error {
	account, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return fmt.Errorf("recordFailure: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recordFailure: begin tx: %w", err)
	}
	defer tx.Rollback()

	txn := newTransaction(account, txType, domain.TransactionResultFail, amount, nil)
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return fmt.Errorf("recordFailure: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recordFailure: commit: %w", err)
	}

	logging.FromContext(ctx).Info("failed attempt recorded",
		"transaction_id", txn.TransactionID,
		"account_number", accountNumber,
		"type", txType,
		"amount", amount,
	)

	return nil
}

// GetAccountTransactions lists an account's ledger entries, newest first.
func (s *TransactionService) GetAccountTransactions(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, error) {
	if _, err := s.accounts.GetByNumber(ctx, accountNumber); err != nil {
		return nil, fmt.Errorf("GetAccountTransactions: %w", err)
	}

	txns, err := s.transactions.GetByAccountNumber(ctx, accountNumber, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("GetAccountTransactions: %w", err)
	}
	return txns, nil
}

// GetTransaction returns the ledger row for transactionID, FAIL rows included.
func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.transactions.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return txn, nil
}

func validateUse(user *domain.AccountUser, account *domain.Account, amount int64) error {
	if account.UserID != user.ID {
		return fmt.Errorf("validateUse: %w", domain.ErrOwnerMismatch)
	}
	if !account.IsOpen() {
		return fmt.Errorf("validateUse: %w", domain.ErrAccountClosed)
	}
	if amount > account.Balance {
		return fmt.Errorf("validateUse: %w", domain.ErrInsufficientBalance)
	}
	return nil
}

func validateCancel(original *domain.Transaction, account *domain.Account, amount int64) error {
	if original.Amount != amount {
		return fmt.Errorf("validateCancel: %w", domain.ErrPartialCancelNotAllowed)
	}
	if original.AccountNumber != account.AccountNumber {
		return fmt.Errorf("validateCancel: %w", domain.ErrTransactionAccountMismatch)
	}
	if !account.IsOpen() {
		return fmt.Errorf("validateCancel: %w", domain.ErrAccountClosed)
	}
	return nil
}

func newTransaction(account *domain.Account, txType domain.TransactionType, result domain.TransactionResult, amount int64, related *string) *domain.Transaction {
	return &domain.Transaction{
		ID:                   uuid.New(),
		TransactionID:        domain.NewTransactionID(),
		AccountID:            account.ID,
		AccountNumber:        account.AccountNumber,
		Type:                 txType,
		Result:               result,
		Amount:               amount,
		BalanceSnapshot:      account.Balance,
		RelatedTransactionID: related,
		TransactedAt:         time.Now().UTC(),
	}
}
