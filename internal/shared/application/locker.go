package application

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotAcquired is returned when another holder keeps the key past the wait.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker serializes work on one key across goroutines or processes.
type Locker interface {
	// Acquire blocks until the key is held or ctx ends. The lease expires
	// after ttl even if release is never called.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// WithLock runs fn while holding key.
func WithLock(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	release, err := locker.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() { _ = release(context.WithoutCancel(ctx)) }()
	return fn(ctx)
}
