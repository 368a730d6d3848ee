package negotiation_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/escrow/infra/repository/memory"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/amirasaad/escrow/pkg/service/negotiation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_OneDecisionPerVersionAndUser(t *testing.T) {
	uow := memory.NewUoW(memory.NewStore())
	log := negotiation.New(nil)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		d, err := log.Submit(ctx, tx, "T-000001", 1, "buyer", true, now)
		require.NoError(t, err)
		assert.Equal(t, "T-000001", d.Code)
		assert.True(t, d.IsAccepted)

		_, err = log.Submit(ctx, tx, "T-000001", 1, "buyer", false, now)
		assert.ErrorIs(t, err, transaction.ErrAlreadyResponded)

		responded, err := log.HasResponded(ctx, tx, "T-000001", 1, "buyer")
		require.NoError(t, err)
		assert.True(t, responded)
		responded, err = log.HasResponded(ctx, tx, "T-000001", 1, "seller")
		require.NoError(t, err)
		assert.False(t, responded)
		responded, err = log.HasResponded(ctx, tx, "T-000001", 2, "buyer")
		require.NoError(t, err)
		assert.False(t, responded)
		return nil
	})
	require.NoError(t, err)

	repo, err := uow.DecisionRepository()
	require.NoError(t, err)
	decisions, err := repo.ListByVersion(ctx, "T-000001", 1)
	require.NoError(t, err)
	assert.Len(t, decisions, 1)
}

func TestHistory_OrderedByVersion(t *testing.T) {
	uow := memory.NewUoW(memory.NewStore())
	log := negotiation.New(nil)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		for i, s := range []struct {
			version  int
			user     string
			accepted bool
		}{
			{2, "seller", true},
			{1, "seller", false},
			{1, "buyer", true},
			{2, "buyer", true},
		} {
			if _, err := log.Submit(ctx, tx, "T-000002", s.version, s.user, s.accepted, base.Add(time.Duration(i)*time.Minute)); err != nil {
				return err
			}
		}
		if _, err := log.Submit(ctx, tx, "T-000003", 1, "buyer", true, base); err != nil {
			return err
		}

		history, err := log.History(ctx, tx, "T-000002")
		require.NoError(t, err)
		require.Len(t, history, 4)
		var got []string
		for _, d := range history {
			got = append(got, d.Username)
			assert.Equal(t, "T-000002", d.Code)
		}
		assert.Equal(t, []string{"seller", "buyer", "seller", "buyer"}, got)
		assert.Equal(t, 1, history[0].Version)
		assert.Equal(t, 2, history[3].Version)
		return nil
	})
	require.NoError(t, err)
}
