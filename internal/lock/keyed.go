package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Keyed is an in-process Locker. Lock entries are created lazily per key and
// removed again once no goroutine is waiting on them.
type Keyed struct {
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyed(timeout time.Duration) *Keyed {
	return &Keyed{
		timeout: timeout,
		entries: make(map[string]*keyedEntry),
	}
}

func (k *Keyed) WithLock(ctx context.Context, key string, fn func() error) error {
	e := k.retain(key)
	defer k.release(key)

	timer := time.NewTimer(k.timeout)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("WithLock %s: %w", key, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("WithLock %s: %w", key, ErrTimeout)
	}
	defer func() { <-e.ch }()

	return fn()
}

func (k *Keyed) retain(key string) *keyedEntry {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e := k.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}
