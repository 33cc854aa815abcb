package application

import (
	"context"
	"fmt"
)

// UnitOfWork scopes repository calls to one transaction carried in the context.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn in a transaction, committing on success and rolling back on error.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}

// RetryPolicy decides whether a failed unit of work may be replayed.
type RetryPolicy struct {
	MaxAttempts int
	Retryable   func(err error) bool
}

// WithRetryingUnitOfWork replays fn in a fresh transaction while the policy
// classifies the failure as retryable. fn must be safe to run more than once.
func WithRetryingUnitOfWork(ctx context.Context, uow UnitOfWork, policy RetryPolicy, fn UnitOfWorkFunc) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = WithUnitOfWork(ctx, uow, fn)
		if err == nil {
			return nil
		}
		if policy.Retryable == nil || !policy.Retryable(err) {
			return err
		}
	}
	return fmt.Errorf("unit of work failed after %d attempts: %w", attempts, err)
}
