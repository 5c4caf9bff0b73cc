package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Redis is a Locker backed by redsync mutexes, for deployments running more
// than one instance of the service against the same database. The expiry
// bounds how long a crashed holder can keep an account locked.
type Redis struct {
	rs         *redsync.Redsync
	expiry     time.Duration
	tries      int
	retryDelay time.Duration
}

func NewRedis(client redis.UniversalClient, expiry time.Duration, timeout time.Duration) *Redis {
	const retryDelay = 100 * time.Millisecond

	tries := int(timeout/retryDelay) + 1

	return &Redis{
		rs:         redsync.New(goredis.NewPool(client)),
		expiry:     expiry,
		tries:      tries,
		retryDelay: retryDelay,
	}
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func() error) error {
	mutex := r.rs.NewMutex(key,
		redsync.WithExpiry(r.expiry),
		redsync.WithTries(r.tries),
		redsync.WithRetryDelay(r.retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		// redsync reports contention either as ErrFailed or as a
		// "lock already taken" error depending on the code path.
		if errors.Is(err, redsync.ErrFailed) || strings.Contains(err.Error(), "lock already taken") {
			return fmt.Errorf("WithLock %s: %w", key, ErrTimeout)
		}
		return fmt.Errorf("WithLock %s: acquire: %w", key, err)
	}

	defer func() {
		if ok, err := mutex.UnlockContext(ctx); !ok || err != nil {
			slog.Error("failed to release lock", "key", key, "error", err)
		}
	}()

	return fn()
}
