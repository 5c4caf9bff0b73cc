package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "use"
	TransactionTypeCancel TransactionType = "cancel"
)

type TransactionResult string

const (
	TransactionResultSuccess TransactionResult = "success"
	TransactionResultFail    TransactionResult = "fail"
)

// Transaction is one row of the append-only ledger. Every attempted balance
// operation, rejected or not, produces exactly one Transaction. Rows are
// never updated or deleted.
type Transaction struct {
	ID            uuid.UUID
	TransactionID string
	AccountID     uuid.UUID
	AccountNumber string
	Type          TransactionType
	Result        TransactionResult
	Amount        int64
	// BalanceSnapshot is the account balance immediately after this
	// transaction's effect, or the unchanged balance on a FAIL row.
	BalanceSnapshot int64
	// RelatedTransactionID is set on cancel rows and points at the reversed
	// use transaction. The original row stays untouched.
	RelatedTransactionID *string
	TransactedAt         time.Time
}

// NewTransactionID returns a 32-hex-character opaque transaction id.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
