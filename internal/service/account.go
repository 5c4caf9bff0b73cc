package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/solademi/account-ledger/internal/domain"
	"github.com/solademi/account-ledger/internal/logging"
)

const maxAllocateAttempts = 5

// maxAccountNumber is the largest value the fixed-width scheme can represent.
const maxAccountNumber = int64(9_999_999_999)

// AccountService manages the account lifecycle: creation with number
// allocation, closure, and listing. Balance mutation lives in
// TransactionService.
type AccountService struct {
	users              userRepo
	accounts           accountRepo
	db                 *sql.DB
	maxAccountsPerUser int
}

func NewAccountService(users userRepo, accounts accountRepo, db *sql.DB, maxAccountsPerUser int) *AccountService {
	return &AccountService{
		users:              users,
		accounts:           accounts,
		db:                 db,
		maxAccountsPerUser: maxAccountsPerUser,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, initialBalance int64) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	count, err := s.accounts.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}
	if count >= s.maxAccountsPerUser {
		return nil, fmt.Errorf("CreateAccount: %w", domain.ErrTooManyAccounts)
	}

	number, err := s.nextAccountNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	account := &domain.Account{
		ID:            uuid.New(),
		UserID:        user.ID,
		AccountNumber: number,
		Status:        domain.AccountStatusInUse,
		Balance:       initialBalance,
		RegisteredAt:  time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	log.Info("account created",
		"account_number", account.AccountNumber,
		"user_id", user.ID,
		"initial_balance", initialBalance,
	)

	return account, nil
}

func (s *AccountService) CloseAccount(ctx context.Context, userID uuid.UUID, accountNumber string) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CloseAccount: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetByNumberForUpdate(ctx, tx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	if account.UserID != user.ID {
		return nil, fmt.Errorf("CloseAccount: %w", domain.ErrOwnerMismatch)
	}

	if err := account.Close(time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	if err := s.accounts.UpdateStatus(ctx, tx, account); err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CloseAccount: commit: %w", err)
	}

	log.Info("account closed",
		"account_number", account.AccountNumber,
		"user_id", user.ID,
	)

	return account, nil
}

func (s *AccountService) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetUserAccounts: %w", err)
	}

	accounts, err := s.accounts.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("GetUserAccounts: %w", err)
	}
	return accounts, nil
}

// nextAccountNumber increments the highest allocated number, falling back to
// a random 10-digit number when none exist or the scheme overflows. Every
// candidate is checked for uniqueness and re-rolled on collision.
func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	candidate, err := s.incrementHighest(ctx)
	if err != nil {
		return "", fmt.Errorf("nextAccountNumber: %w", err)
	}

	for range maxAllocateAttempts {
		if candidate == "" {
			candidate, err = randomAccountNumber()
			if err != nil {
				return "", fmt.Errorf("nextAccountNumber: %w", err)
			}
		}

		exists, err := s.accounts.NumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("nextAccountNumber: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = ""
	}

	return "", fmt.Errorf("nextAccountNumber: no unique account number after %d attempts", maxAllocateAttempts)
}

// incrementHighest returns the sequential candidate, or "" when the random
// fallback should be used instead.
func (s *AccountService) incrementHighest(ctx context.Context) (string, error) {
	highest, err := s.accounts.HighestNumber(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil
		}
		return "", err
	}

	n, err := strconv.ParseInt(highest, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse account number %q: %w", highest, err)
	}
	if n >= maxAccountNumber {
		return "", nil
	}

	return fmt.Sprintf("%0*d", domain.AccountNumberLength, n+1), nil
}

func randomAccountNumber() (string, error) {
	digits := make([]byte, domain.AccountNumberLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("randomAccountNumber: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
