package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUoW_DoCommitsAndResolvesRepositories(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db, state.MustDefaultRegistry())

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		txRepo, err := txUow.TransactionRepository()
		require.NoError(err)
		_, ok := txRepo.(*transactionRepository)
		require.True(ok)

		_, err = txUow.DecisionRepository()
		require.NoError(err)
		_, err = txUow.PaymentRepository()
		require.NoError(err)
		_, err = txUow.ProviderEventRepository()
		require.NoError(err)
		_, err = txUow.CatalogRepository()
		require.NoError(err)
		_, err = txUow.StateRepository()
		require.NoError(err)
		return nil
	})
	require.NoError(err)
	require.NoError(mock.ExpectationsWereMet())
}

func TestUoW_DoRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db, state.MustDefaultRegistry())
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_GetRepositoryUnsupported(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db, state.MustDefaultRegistry())

	_, err := uow.GetRepository(reflect.TypeOf(""))
	assert.ErrorIs(t, err, repository.ErrUnsupportedRepository)
}
