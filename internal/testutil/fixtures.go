package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/solademi/account-ledger/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, name string) *domain.AccountUser {
	t.Helper()

	u := &domain.AccountUser{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO account_users (id, name, created_at) VALUES ($1, $2, $3)`,
		u.ID, u.Name, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func SeedAccount(t *testing.T, db *sql.DB, userID uuid.UUID, accountNumber string, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: accountNumber,
		Status:        domain.AccountStatusInUse,
		Balance:       balance,
		RegisteredAt:  time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, user_id, account_number, status, balance, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.AccountNumber, a.Status, a.Balance, a.RegisteredAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", accountNumber, err)
	}
	return a
}

func CloseSeededAccount(t *testing.T, db *sql.DB, accountNumber string) {
	t.Helper()

	_, err := db.Exec(
		`UPDATE accounts SET status = 'unregistered', unregistered_at = now()
		 WHERE account_number = $1`, accountNumber,
	)
	if err != nil {
		t.Fatalf("close seeded account %s: %v", accountNumber, err)
	}
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountNumber string) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(
		`SELECT balance FROM accounts WHERE account_number = $1`, accountNumber,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountNumber, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, accountNumber string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE account_number = $1`, accountNumber,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for account %s: %v", accountNumber, err)
	}
	return count
}
