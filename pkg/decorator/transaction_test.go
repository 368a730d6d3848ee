package decorator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/escrow/infra/lock"
	"github.com/amirasaad/escrow/infra/repository/memory"
	"github.com/amirasaad/escrow/pkg/decorator"
	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDecorator() (*decorator.UnitOfWorkTransactionDecorator, *memory.UoW) {
	uow := memory.NewUoW(memory.NewStore())
	return decorator.NewUnitOfWorkTransactionDecorator(uow, lock.NewMemoryLocker(), nil, nil), uow
}

func TestLock_SerializesSameCode(t *testing.T) {
	d, _ := newDecorator()
	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.Lock(context.Background(), "T-000001", func(ctx context.Context) error {
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}

func TestLock_OtherCodesDoNotWait(t *testing.T) {
	d, _ := newDecorator()
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = d.Lock(context.Background(), "T-000001", func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Lock(ctx, "T-000002", func(ctx context.Context) error { return nil }))

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	err := d.Lock(short, "T-000001", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLock_PanicReleasesLock(t *testing.T) {
	d, _ := newDecorator()
	assert.PanicsWithValue(t, "boom", func() {
		_ = d.Lock(context.Background(), "T-000001", func(ctx context.Context) error {
			panic("boom")
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.Lock(ctx, "T-000001", func(ctx context.Context) error { return nil }))
}

func TestExecute_RollsBackOnError(t *testing.T) {
	d, uow := newDecorator()
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.Execute(ctx, "T-000001", func(tx repository.UnitOfWork) error {
		repo, err := tx.TransactionRepository()
		if err != nil {
			return err
		}
		if err := repo.CreateHeader(ctx, &transaction.Header{BuyerUsername: "b", Lines: []transaction.LineItem{{SellerUsername: "s"}}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	repo, err := uow.TransactionRepository()
	require.NoError(t, err)
	_, err = repo.GetHeader(ctx, "T-000001")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = d.Execute(ctx, "T-000001", func(tx repository.UnitOfWork) error {
		repo, err := tx.TransactionRepository()
		if err != nil {
			return err
		}
		return repo.CreateHeader(ctx, &transaction.Header{BuyerUsername: "b", Lines: []transaction.LineItem{{SellerUsername: "s"}}})
	})
	require.NoError(t, err)
	_, err = repo.GetHeader(ctx, "T-000001")
	assert.NoError(t, err)
}
