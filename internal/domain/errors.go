package domain

import "errors"

var (
	ErrUserNotFound               = errors.New("user not found")
	ErrAccountNotFound            = errors.New("account not found")
	ErrTransactionNotFound        = errors.New("transaction not found")
	ErrTooManyAccounts            = errors.New("maximum number of accounts per user reached")
	ErrOwnerMismatch              = errors.New("account is not owned by this user")
	ErrAlreadyClosed              = errors.New("account already unregistered")
	ErrBalanceNotEmpty            = errors.New("balance must be empty to close the account")
	ErrAccountClosed              = errors.New("account is unregistered")
	ErrInsufficientBalance        = errors.New("amount exceeds balance")
	ErrInvalidAmount              = errors.New("amount must be greater than zero")
	ErrPartialCancelNotAllowed    = errors.New("cancel amount must match the original transaction amount")
	ErrTransactionAccountMismatch = errors.New("transaction does not belong to this account")
	ErrTransactionAlreadyCanceled = errors.New("transaction already canceled")
)

var businessErrors = []error{
	ErrUserNotFound,
	ErrAccountNotFound,
	ErrTransactionNotFound,
	ErrTooManyAccounts,
	ErrOwnerMismatch,
	ErrAlreadyClosed,
	ErrBalanceNotEmpty,
	ErrAccountClosed,
	ErrInsufficientBalance,
	ErrInvalidAmount,
	ErrPartialCancelNotAllowed,
	ErrTransactionAccountMismatch,
	ErrTransactionAlreadyCanceled,
}

// IsBusiness reports whether err is a rejected business-rule error, as
// opposed to an infrastructure failure (lock, store). The boundary layer
// records a FAIL ledger row only for business errors.
func IsBusiness(err error) bool {
	for _, be := range businessErrors {
		if errors.Is(err, be) {
			return true
		}
	}
	return false
}
