package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountStatusInUse        AccountStatus = "in_use"
	AccountStatusUnregistered AccountStatus = "unregistered"
)

// AccountNumberLength is the fixed width of the decimal account number scheme.
const AccountNumberLength = 10

type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	AccountNumber  string
	Status         AccountStatus
	Balance        int64
	RegisteredAt   time.Time
	UnregisteredAt *time.Time
}

// Debit reduces the balance by amount. The balance never goes negative.
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("Debit: %w", ErrInvalidAmount)
	}
	if a.Status == AccountStatusUnregistered {
		return fmt.Errorf("Debit: %w", ErrAccountClosed)
	}
	if amount > a.Balance {
		return fmt.Errorf("Debit: %w", ErrInsufficientBalance)
	}
	a.Balance -= amount
	return nil
}

// Credit restores amount to the balance, used by cancel reversals.
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("Credit: %w", ErrInvalidAmount)
	}
	if a.Status == AccountStatusUnregistered {
		return fmt.Errorf("Credit: %w", ErrAccountClosed)
	}
	a.Balance += amount
	return nil
}

// Close transitions the account to unregistered. The transition happens at
// most once and only when the balance is empty.
func (a *Account) Close(at time.Time) error {
	if a.Status == AccountStatusUnregistered {
		return fmt.Errorf("Close: %w", ErrAlreadyClosed)
	}
	if a.Balance > 0 {
		return fmt.Errorf("Close: %w", ErrBalanceNotEmpty)
	}
	a.Status = AccountStatusUnregistered
	a.UnregisteredAt = &at
	return nil
}

func (a *Account) IsOpen() bool {
	return a.Status == AccountStatusInUse
}
