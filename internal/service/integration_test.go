package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solademi/account-ledger/internal/domain"
	"github.com/solademi/account-ledger/internal/lock"
	"github.com/solademi/account-ledger/internal/repository"
	"github.com/solademi/account-ledger/internal/service"
	"github.com/solademi/account-ledger/internal/testutil"
)

type services struct {
	db           *sql.DB
	accounts     *service.AccountService
	transactions *service.TransactionService
}

func setupServices(t *testing.T) *services {
	t.Helper()

	db := testutil.SetupTestDB(t)

	users := repository.NewUserRepository(db)
	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)

	return &services{
		db:           db,
		accounts:     service.NewAccountService(users, accounts, db, 10),
		transactions: service.NewTransactionService(users, accounts, transactions, lock.NewKeyed(5*time.Second), db),
	}
}

func TestAccountLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := setupServices(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, s.db, "Dahye")

	t.Run("create up to the limit", func(t *testing.T) {
		var numbers []string
		for range 10 {
			account, err := s.accounts.CreateAccount(ctx, user.ID, 0)
			require.NoError(t, err)
			numbers = append(numbers, account.AccountNumber)
		}

		// The eleventh must be rejected.
		_, err := s.accounts.CreateAccount(ctx, user.ID, 0)
		require.ErrorIs(t, err, domain.ErrTooManyAccounts)

		seen := make(map[string]bool)
		for _, n := range numbers {
			assert.Len(t, n, domain.AccountNumberLength)
			assert.False(t, seen[n], "duplicate account number %s", n)
			seen[n] = true
		}
	})

	t.Run("close marks unregistered", func(t *testing.T) {
		listed, err := s.accounts.GetUserAccounts(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, listed, 10)

		closed, err := s.accounts.CloseAccount(ctx, user.ID, listed[0].AccountNumber)
		require.NoError(t, err)
		assert.Equal(t, domain.AccountStatusUnregistered, closed.Status)
		require.NotNil(t, closed.UnregisteredAt)

		// Closed accounts still count towards the cap.
		_, err = s.accounts.CreateAccount(ctx, user.ID, 0)
		require.ErrorIs(t, err, domain.ErrTooManyAccounts)
	})

	t.Run("close with balance rejected", func(t *testing.T) {
		owner := testutil.SeedUser(t, s.db, "Wonpil")
		account, err := s.accounts.CreateAccount(ctx, owner.ID, 500)
		require.NoError(t, err)

		_, err = s.accounts.CloseAccount(ctx, owner.ID, account.AccountNumber)
		require.ErrorIs(t, err, domain.ErrBalanceNotEmpty)
	})

	t.Run("close by non-owner rejected", func(t *testing.T) {
		stranger := testutil.SeedUser(t, s.db, "Taeyang")
		listed, err := s.accounts.GetUserAccounts(ctx, user.ID)
		require.NoError(t, err)

		_, err = s.accounts.CloseAccount(ctx, stranger.ID, listed[1].AccountNumber)
		require.ErrorIs(t, err, domain.ErrOwnerMismatch)
	})

	t.Run("double close rejected", func(t *testing.T) {
		listed, err := s.accounts.GetUserAccounts(ctx, user.ID)
		require.NoError(t, err)

		_, err = s.accounts.CloseAccount(ctx, user.ID, listed[0].AccountNumber)
		require.ErrorIs(t, err, domain.ErrAlreadyClosed)
	})
}

func TestUseBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := setupServices(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, s.db, "Sooah")
	account := testutil.SeedAccount(t, s.db, user.ID, "1000000001", 10_000)

	t.Run("debits and appends success row", func(t *testing.T) {
		txn, err := s.transactions.UseBalance(ctx, user.ID, account.AccountNumber, 3_000)
		require.NoError(t, err)

		assert.Len(t, txn.TransactionID, 32)
		assert.Equal(t, domain.TransactionTypeUse, txn.Type)
		assert.Equal(t, domain.TransactionResultSuccess, txn.Result)
		assert.Equal(t, int64(3_000), txn.Amount)
		assert.Equal(t, int64(7_000), txn.BalanceSnapshot)
		assert.Nil(t, txn.RelatedTransactionID)

		assert.Equal(t, int64(7_000), testutil.GetAccountBalance(t, s.db, account.AccountNumber))
	})

	t.Run("insufficient balance leaves account untouched", func(t *testing.T) {
		_, err := s.transactions.UseBalance(ctx, user.ID, account.AccountNumber, 50_000)
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)

		assert.Equal(t, int64(7_000), testutil.GetAccountBalance(t, s.db, account.AccountNumber))
		assert.Equal(t, 1, testutil.CountTransactions(t, s.db, account.AccountNumber))
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		stranger := testutil.SeedUser(t, s.db, "Hyunwoo")
		_, err := s.transactions.UseBalance(ctx, stranger.ID, account.AccountNumber, 100)
		require.ErrorIs(t, err, domain.ErrOwnerMismatch)
	})

	t.Run("closed account rejected", func(t *testing.T) {
		closed := testutil.SeedAccount(t, s.db, user.ID, "1000000002", 1_000)
		testutil.CloseSeededAccount(t, s.db, closed.AccountNumber)

		_, err := s.transactions.UseBalance(ctx, user.ID, closed.AccountNumber, 100)
		require.ErrorIs(t, err, domain.ErrAccountClosed)
	})

	t.Run("unknown account rejected", func(t *testing.T) {
		_, err := s.transactions.UseBalance(ctx, user.ID, "9999999999", 100)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestCancelBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := setupServices(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, s.db, "Jiwoo")
	account := testutil.SeedAccount(t, s.db, user.ID, "1000000001", 10_000)

	use, err := s.transactions.UseBalance(ctx, user.ID, account.AccountNumber, 4_000)
	require.NoError(t, err)

	t.Run("partial cancel rejected", func(t *testing.T) {
		_, err := s.transactions.CancelBalance(ctx, use.TransactionID, account.AccountNumber, 1_000)
		require.ErrorIs(t, err, domain.ErrPartialCancelNotAllowed)
	})

	t.Run("wrong account rejected", func(t *testing.T) {
		other := testutil.SeedAccount(t, s.db, user.ID, "1000000002", 0)
		_, err := s.transactions.CancelBalance(ctx, use.TransactionID, other.AccountNumber, 4_000)
		require.ErrorIs(t, err, domain.ErrTransactionAccountMismatch)
	})

	t.Run("unknown transaction rejected", func(t *testing.T) {
		_, err := s.transactions.CancelBalance(ctx, domain.NewTransactionID(), account.AccountNumber, 4_000)
		require.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("full cancel restores balance", func(t *testing.T) {
		cancel, err := s.transactions.CancelBalance(ctx, use.TransactionID, account.AccountNumber, 4_000)
		require.NoError(t, err)

		assert.Equal(t, domain.TransactionTypeCancel, cancel.Type)
		assert.Equal(t, domain.TransactionResultSuccess, cancel.Result)
		assert.Equal(t, int64(4_000), cancel.Amount)
		assert.Equal(t, int64(10_000), cancel.BalanceSnapshot)
		require.NotNil(t, cancel.RelatedTransactionID)
		assert.Equal(t, use.TransactionID, *cancel.RelatedTransactionID)

		assert.Equal(t, int64(10_000), testutil.GetAccountBalance(t, s.db, account.AccountNumber))
	})

	t.Run("second cancel of same use rejected", func(t *testing.T) {
		_, err := s.transactions.CancelBalance(ctx, use.TransactionID, account.AccountNumber, 4_000)
		require.ErrorIs(t, err, domain.ErrTransactionAlreadyCanceled)

		assert.Equal(t, int64(10_000), testutil.GetAccountBalance(t, s.db, account.AccountNumber))
	})

	t.Run("cancel on closed account rejected", func(t *testing.T) {
		closing := testutil.SeedAccount(t, s.db, user.ID, "1000000003", 1_000)
		use2, err := s.transactions.UseBalance(ctx, user.ID, closing.AccountNumber, 1_000)
		require.NoError(t, err)

		testutil.CloseSeededAccount(t, s.db, closing.AccountNumber)

		_, err = s.transactions.CancelBalance(ctx, use2.TransactionID, closing.AccountNumber, 1_000)
		require.ErrorIs(t, err, domain.ErrAccountClosed)
	})
}

func TestRecordFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := setupServices(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, s.db, "Nari")
	account := testutil.SeedAccount(t, s.db, user.ID, "1000000001", 500)

	require.NoError(t, s.transactions.RecordFailedUse(ctx, account.AccountNumber, 2_000))

	rows, err := s.db.Query(
		`SELECT transaction_id, transaction_type, result, amount, balance_snapshot
		 FROM transactions WHERE account_number = $1`, account.AccountNumber,
	)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var (
		transactionID, txType, result string
		amount, snapshot              int64
	)
	require.NoError(t, rows.Scan(&transactionID, &txType, &result, &amount, &snapshot))
	require.False(t, rows.Next())
	require.NoError(t, rows.Err())

	assert.Len(t, transactionID, 32)
	assert.Equal(t, "use", txType)
	assert.Equal(t, "fail", result)
	assert.Equal(t, int64(2_000), amount)
	// Snapshot is the untouched balance at the time of the failed attempt.
	assert.Equal(t, int64(500), snapshot)
	assert.Equal(t, int64(500), testutil.GetAccountBalance(t, s.db, account.AccountNumber))

	t.Run("fail row is readable", func(t *testing.T) {
		txn, err := s.transactions.GetTransaction(ctx, transactionID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionResultFail, txn.Result)
		assert.Equal(t, int64(2_000), txn.Amount)
	})

	t.Run("history includes the fail row", func(t *testing.T) {
		txns, err := s.transactions.GetAccountTransactions(ctx, account.AccountNumber, 10, 0)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, domain.TransactionResultFail, txns[0].Result)
	})

	t.Run("unknown account stays unrecorded", func(t *testing.T) {
		err := s.transactions.RecordFailedCancel(ctx, "9999999999", 100)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestConcurrentUseBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := setupServices(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, s.db, "Byeol")
	account := testutil.SeedAccount(t, s.db, user.ID, "1000000001", 1_000)

	// 20 concurrent debits of 100 against a balance of 1 000: exactly ten can
	// succeed, the rest must fail with insufficient balance, and the final
	// balance must be zero.
	const attempts = 20
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.transactions.UseBalance(ctx, user.ID, account.AccountNumber, 100)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	}

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, int64(0), testutil.GetAccountBalance(t, s.db, account.AccountNumber))
	assert.Equal(t, 10, testutil.CountTransactions(t, s.db, account.AccountNumber))
}

func TestConcurrentCancelBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := setupServices(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, s.db, "Eunbi")
	account := testutil.SeedAccount(t, s.db, user.ID, "1000000001", 1_000)

	use, err := s.transactions.UseBalance(ctx, user.ID, account.AccountNumber, 400)
	require.NoError(t, err)

	// Racing cancels of the same use: exactly one may land.
	const attempts = 5
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.transactions.CancelBalance(ctx, use.TransactionID, account.AccountNumber, 400)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrTransactionAlreadyCanceled)
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1_000), testutil.GetAccountBalance(t, s.db, account.AccountNumber))
}
