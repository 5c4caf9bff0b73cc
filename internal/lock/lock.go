// Package lock provides named exclusive sections keyed by account number.
// Operations that mutate a balance hold the account's lock for their whole
// read-validate-write sequence; operations on different accounts run in
// parallel.
package lock

import (
	"context"
	"errors"
)

var (
	// ErrTimeout means the lock could not be acquired within the configured
	// window. Callers should treat the operation as retryable.
	ErrTimeout = errors.New("lock acquisition timed out")
)

// Locker runs fn while holding the exclusive lock for key. The lock is
// released on every exit path, including a panic inside fn.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// AccountKey builds the lock key for an account number.
func AccountKey(accountNumber string) string {
	return "lock:account:" + accountNumber
}
