package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/solademi/account-ledger/internal/domain"
	"github.com/solademi/account-ledger/internal/logging"
)

type accountService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, initialBalance int64) (*domain.Account, error)
	CloseAccount(ctx context.Context, userID uuid.UUID, accountNumber string) (*domain.Account, error)
	GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	UserID         string `json:"user_id"`
	InitialBalance int64  `json:"initial_balance"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.UserID); err != nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "must be a valid uuid"})
	}
	if r.InitialBalance < 0 {
		errs = append(errs, FieldError{Field: "initial_balance", Message: "must not be negative"})
	}
	return errs
}

type closeAccountRequest struct {
	UserID        string `json:"user_id"`
	AccountNumber string `json:"account_number"`
}

func (r closeAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.UserID); err != nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "must be a valid uuid"})
	}
	errs = append(errs, validateAccountNumber(r.AccountNumber)...)
	return errs
}

type createAccountResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	RegisteredAt  time.Time `json:"registered_at"`
}

type closeAccountResponse struct {
	UserID         uuid.UUID  `json:"user_id"`
	AccountNumber  string     `json:"account_number"`
	UnregisteredAt *time.Time `json:"unregistered_at"`
}

type accountInfo struct {
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), uuid.MustParse(req.UserID), req.InitialBalance)
	if err != nil {
		logging.FromContext(r.Context()).Warn("account creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, createAccountResponse{
		UserID:        account.UserID,
		AccountNumber: account.AccountNumber,
		RegisteredAt:  account.RegisteredAt,
	})
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req closeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.CloseAccount(r.Context(), uuid.MustParse(req.UserID), req.AccountNumber)
	if err != nil {
		logging.FromContext(r.Context()).Warn("account closure failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, closeAccountResponse{
		UserID:         account.UserID,
		AccountNumber:  account.AccountNumber,
		UnregisteredAt: account.UnregisteredAt,
	})
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "user_id", Message: "must be a valid uuid"}})
		return
	}

	accounts, err := h.accounts.GetUserAccounts(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("account listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	infos := make([]accountInfo, len(accounts))
	for i, a := range accounts {
		infos[i] = accountInfo{AccountNumber: a.AccountNumber, Balance: a.Balance}
	}

	RespondSuccess(w, http.StatusOK, infos)
}

func validateAccountNumber(number string) []FieldError {
	if len(number) != domain.AccountNumberLength {
		return []FieldError{{Field: "account_number", Message: "must be 10 digits"}}
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return []FieldError{{Field: "account_number", Message: "must be 10 digits"}}
		}
	}
	return nil
}
