// Package decorator provides decorators for cross-cutting concerns of the
// escrow services. The transaction decorator serializes every mutating
// operation on one transaction code and wraps it in a unit of work.
package decorator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/escrow/pkg/lock"
	"github.com/amirasaad/escrow/pkg/metrics"
	"github.com/amirasaad/escrow/pkg/repository"
)

// TransactionDecorator defines how services run work for one transaction
// code.
//
// Example usage:
//
//	err := s.tx.Execute(ctx, code, func(uow repository.UnitOfWork) error {
//	    repo, err := uow.PaymentRepository()
//	    if err != nil {
//	        return err
//	    }
//	    return repo.Update(ctx, p)
//	})
type TransactionDecorator interface {
	// Lock runs fn while holding the per-code lock. Provider calls that
	// must not interleave with other work on the code go here, outside any
	// storage transaction.
	Lock(ctx context.Context, code string, fn func(ctx context.Context) error) error

	// Execute runs fn in a unit of work while holding the per-code lock.
	Execute(ctx context.Context, code string, fn func(uow repository.UnitOfWork) error) error
}

// UnitOfWorkTransactionDecorator implements TransactionDecorator with a
// lock.Locker and a repository.UnitOfWork.
//
// Panics inside fn are logged and re-raised after the lock is released and
// the storage transaction rolled back.
type UnitOfWorkTransactionDecorator struct {
	uow     repository.UnitOfWork
	locker  lock.Locker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewUnitOfWorkTransactionDecorator creates a new UnitOfWorkTransactionDecorator.
func NewUnitOfWorkTransactionDecorator(
	uow repository.UnitOfWork,
	locker lock.Locker,
	m *metrics.Metrics,
	logger *slog.Logger,
) *UnitOfWorkTransactionDecorator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWorkTransactionDecorator{
		uow:     uow,
		locker:  locker,
		metrics: m,
		logger:  logger,
	}
}

// Lock acquires the lock for code and runs fn.
func (d *UnitOfWorkTransactionDecorator) Lock(
	ctx context.Context,
	code string,
	fn func(ctx context.Context) error,
) error {
	start := time.Now()
	unlock, err := d.locker.Lock(ctx, lockKey(code))
	d.metrics.LockWait(time.Since(start))
	if err != nil {
		d.logger.Error("Failed to acquire transaction lock", "transaction_code", code, "error", err)
		return fmt.Errorf("failed to lock transaction %s: %w", code, err)
	}
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Transaction panic recovered", "transaction_code", code, "panic", r)
			panic(r)
		}
	}()
	return fn(ctx)
}

// Execute acquires the lock for code and runs fn in a unit of work.
func (d *UnitOfWorkTransactionDecorator) Execute(
	ctx context.Context,
	code string,
	fn func(uow repository.UnitOfWork) error,
) error {
	return d.Lock(ctx, code, func(ctx context.Context) error {
		return d.uow.Do(ctx, fn)
	})
}

func lockKey(code string) string {
	return "tx:" + code
}
