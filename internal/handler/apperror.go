package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/solademi/account-ledger/internal/domain"
	"github.com/solademi/account-ledger/internal/lock"
)

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrUserNotFound               = &AppError{http.StatusNotFound, "USER_NOT_FOUND", "User not found"}
	ErrAccountNotFound            = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrTransactionNotFound        = &AppError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"}
	ErrTooManyAccounts            = &AppError{http.StatusUnprocessableEntity, "MAX_ACCOUNT_PER_USER", "Maximum number of accounts per user reached"}
	ErrOwnerMismatch              = &AppError{http.StatusUnprocessableEntity, "USER_ACCOUNT_UN_MATCH", "Account is not owned by this user"}
	ErrAlreadyClosed              = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_ALREADY_UNREGISTERED", "Account is already unregistered"}
	ErrBalanceNotEmpty            = &AppError{http.StatusUnprocessableEntity, "BALANCE_NOT_EMPTY", "Balance must be empty to close the account"}
	ErrAccountClosed              = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_UNREGISTERED", "Account is unregistered"}
	ErrInsufficientBalance        = &AppError{http.StatusUnprocessableEntity, "AMOUNT_EXCEED_BALANCE", "Amount exceeds balance"}
	ErrInvalidAmount              = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrPartialCancelNotAllowed    = &AppError{http.StatusUnprocessableEntity, "CANCEL_MUST_FULLY", "Cancel amount must match the original transaction amount"}
	ErrTransactionAccountMismatch = &AppError{http.StatusUnprocessableEntity, "TRANSACTION_ACCOUNT_UN_MATCH", "Transaction does not belong to this account"}
	ErrTransactionAlreadyCanceled = &AppError{http.StatusConflict, "TRANSACTION_ALREADY_CANCELED", "Transaction already canceled"}
	ErrLockTimeout                = &AppError{http.StatusConflict, "ACCOUNT_TRANSACTION_LOCK", "Account is busy, please retry"}
)

func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		appErr = ErrUserNotFound
	case errors.Is(err, domain.ErrAccountNotFound):
		appErr = ErrAccountNotFound
	case errors.Is(err, domain.ErrTransactionNotFound):
		appErr = ErrTransactionNotFound
	case errors.Is(err, domain.ErrTooManyAccounts):
		appErr = ErrTooManyAccounts
	case errors.Is(err, domain.ErrOwnerMismatch):
		appErr = ErrOwnerMismatch
	case errors.Is(err, domain.ErrAlreadyClosed):
		appErr = ErrAlreadyClosed
	case errors.Is(err, domain.ErrBalanceNotEmpty):
		appErr = ErrBalanceNotEmpty
	case errors.Is(err, domain.ErrAccountClosed):
		appErr = ErrAccountClosed
	case errors.Is(err, domain.ErrInsufficientBalance):
		appErr = ErrInsufficientBalance
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrPartialCancelNotAllowed):
		appErr = ErrPartialCancelNotAllowed
	case errors.Is(err, domain.ErrTransactionAccountMismatch):
		appErr = ErrTransactionAccountMismatch
	case errors.Is(err, domain.ErrTransactionAlreadyCanceled):
		appErr = ErrTransactionAlreadyCanceled
	case errors.Is(err, lock.ErrTimeout):
		appErr = ErrLockTimeout
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}
