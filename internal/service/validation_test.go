package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/solademi/account-ledger/internal/domain"
)

func testAccount(userID uuid.UUID, balance int64) *domain.Account {
	return &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: "1000000001",
		Status:        domain.AccountStatusInUse,
		Balance:       balance,
		RegisteredAt:  time.Now().UTC(),
	}
}

func closedAccount(userID uuid.UUID) *domain.Account {
	a := testAccount(userID, 0)
	a.Status = domain.AccountStatusUnregistered
	now := time.Now().UTC()
	a.UnregisteredAt = &now
	return a
}

func TestValidateUse(t *testing.T) {
	owner := &domain.AccountUser{ID: uuid.New(), Name: "Minseo"}
	stranger := &domain.AccountUser{ID: uuid.New(), Name: "Haru"}

	tests := []struct {
		name    string
		user    *domain.AccountUser
		account *domain.Account
		amount  int64
		wantErr error
	}{
		{name: "valid use", user: owner, account: testAccount(owner.ID, 500), amount: 200},
		{name: "exact balance", user: owner, account: testAccount(owner.ID, 500), amount: 500},
		{name: "owner mismatch", user: stranger, account: testAccount(owner.ID, 500), amount: 200, wantErr: domain.ErrOwnerMismatch},
		{name: "account closed", user: owner, account: closedAccount(owner.ID), amount: 200, wantErr: domain.ErrAccountClosed},
		{name: "amount exceeds balance", user: owner, account: testAccount(owner.ID, 500), amount: 600, wantErr: domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUse(tt.user, tt.account, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateCancel(t *testing.T) {
	owner := uuid.New()
	account := testAccount(owner, 300)

	original := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: domain.NewTransactionID(),
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Type:          domain.TransactionTypeUse,
		Result:        domain.TransactionResultSuccess,
		Amount:        200,
	}

	otherAccount := testAccount(uuid.New(), 100)
	otherAccount.AccountNumber = "2000000002"

	tests := []struct {
		name    string
		account *domain.Account
		amount  int64
		wantErr error
	}{
		{name: "exact amount on same account", account: account, amount: 200},
		{name: "partial cancel", account: account, amount: 100, wantErr: domain.ErrPartialCancelNotAllowed},
		{name: "over cancel", account: account, amount: 300, wantErr: domain.ErrPartialCancelNotAllowed},
		{name: "different account", account: otherAccount, amount: 200, wantErr: domain.ErrTransactionAccountMismatch},
		{name: "closed account", account: closedAccount(owner), amount: 200, wantErr: domain.ErrAccountClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCancel(original, tt.account, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
