package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/solademi/account-ledger/internal/domain"
	"github.com/solademi/account-ledger/internal/logging"
)

type transactionService interface {
	UseBalance(ctx context.Context, userID uuid.UUID, accountNumber string, amount int64) (*domain.Transaction, error)
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error)
	RecordFailedUse(ctx context.Context, accountNumber string, amount int64) error
	RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) error
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
	GetAccountTransactions(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	transactions transactionService
}

func NewTransactionHandler(transactions transactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type useBalanceRequest struct {
	UserID        string `json:"user_id"`
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
}

func (r useBalanceRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.UserID); err != nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "must be a valid uuid"})
	}
	errs = append(errs, validateAccountNumber(r.AccountNumber)...)
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type cancelBalanceRequest struct {
	TransactionID string `json:"transaction_id"`
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
}

func (r cancelBalanceRequest) Validate() []FieldError {
	var errs []FieldError
	if r.TransactionID == "" {
		errs = append(errs, FieldError{Field: "transaction_id", Message: "required"})
	}
	errs = append(errs, validateAccountNumber(r.AccountNumber)...)
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type transactionDTO struct {
	AccountNumber     string    `json:"account_number"`
	TransactionType   string    `json:"transaction_type,omitempty"`
	TransactionResult string    `json:"transaction_result"`
	TransactionID     string    `json:"transaction_id"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transacted_at"`
}

func toTransactionDTO(t *domain.Transaction, includeType bool) transactionDTO {
	dto := transactionDTO{
		AccountNumber:     t.AccountNumber,
		TransactionResult: string(t.Result),
		TransactionID:     t.TransactionID,
		Amount:            t.Amount,
		TransactedAt:      t.TransactedAt,
	}
	if includeType {
		dto.TransactionType = string(t.Type)
	}
	return dto
}

// Use debits an account. On a business-rule rejection the handler records the
// failed attempt before responding; the attempt-then-record protocol lives
// here, not in the engine.
func (h *TransactionHandler) Use(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req useBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.transactions.UseBalance(r.Context(), uuid.MustParse(req.UserID), req.AccountNumber, req.Amount)
	if err != nil {
		log.Warn("balance use failed", "account_number", req.AccountNumber, "error", err)
		h.recordFailure(r.Context(), req.AccountNumber, req.Amount, err, h.transactions.RecordFailedUse)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn, false))
}

// Cancel reverses a prior debit for its exact amount.
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req cancelBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.transactions.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		log.Warn("balance cancel failed", "account_number", req.AccountNumber, "error", err)
		h.recordFailure(r.Context(), req.AccountNumber, req.Amount, err, h.transactions.RecordFailedCancel)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn, false))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	transactionID := r.PathValue("transactionId")
	if transactionID == "" {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	txn, err := h.transactions.GetTransaction(r.Context(), transactionID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn, true))
}

// History lists an account's ledger entries, newest first.
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	accountNumber := r.PathValue("accountNumber")
	if fields := validateAccountNumber(accountNumber); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	limit := parsePositiveInt(r.URL.Query().Get("limit"), 20, 100)
	offset := parsePositiveInt(r.URL.Query().Get("offset"), 0, 1<<30)

	txns, err := h.transactions.GetAccountTransactions(r.Context(), accountNumber, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction history failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i], true)
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func parsePositiveInt(raw string, def, upper int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}

// recordFailure appends the FAIL ledger row for a rejected attempt. Lock and
// store failures are not attempts against the account, so only business
// errors are recorded.
func (h *TransactionHandler) recordFailure(ctx context.Context, accountNumber string, amount int64, cause error, record func(context.Context, string, int64) error) {
	if !domain.IsBusiness(cause) {
		return
	}
	if err := record(ctx, accountNumber, amount); err != nil {
		logging.FromContext(ctx).Error("failed to record failed attempt",
			"account_number", accountNumber,
			"error", err,
		)
	}
}
