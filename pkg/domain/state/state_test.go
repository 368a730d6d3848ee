package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupByCode(t *testing.T) {
	r := MustDefaultRegistry()

	s, err := r.TransactionState(TransactionAccepted)
	require.NoError(t, err)
	assert.Equal(t, "TS-02", s.Code)

	byID, err := r.TransactionStateByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, byID)

	p, err := r.PaymentState(PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, "TPS-04", p.Code)

	_, err = r.PaymentState("TPS-99")
	assert.ErrorIs(t, err, ErrUnknownState)
	_, err = r.TransactionStateByID(42)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestRegistry_IDsAreStorageArtifacts(t *testing.T) {
	// ids assigned by storage in a different order must still resolve by code
	tx := []State{
		{ID: 30, Code: "TS-03", IsActive: true},
		{ID: 10, Code: "TS-01", IsActive: true},
		{ID: 20, Code: "TS-02", IsActive: true},
	}
	r, err := NewRegistry(tx, DefaultPaymentStates())
	require.NoError(t, err)

	id, err := r.TransactionID(TransactionCreated)
	require.NoError(t, err)
	assert.Equal(t, uint(10), id)
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Run("missing code", func(t *testing.T) {
		_, err := NewRegistry(DefaultTransactionStates()[:2], DefaultPaymentStates())
		assert.ErrorIs(t, err, ErrIncompleteSeed)
	})
	t.Run("inactive code", func(t *testing.T) {
		pay := DefaultPaymentStates()
		pay[1].IsActive = false
		_, err := NewRegistry(DefaultTransactionStates(), pay)
		assert.ErrorIs(t, err, ErrInactiveState)
	})
	t.Run("duplicate id", func(t *testing.T) {
		tx := DefaultTransactionStates()
		tx[2].ID = tx[1].ID
		_, err := NewRegistry(tx, DefaultPaymentStates())
		assert.ErrorIs(t, err, ErrDuplicateState)
	})
}

func TestTransitions(t *testing.T) {
	assert.True(t, CanTransitionTransaction(TransactionCreated, TransactionCreated))
	assert.True(t, CanTransitionTransaction(TransactionCreated, TransactionAccepted))
	assert.True(t, CanTransitionTransaction(TransactionAccepted, TransactionCompleted))
	assert.False(t, CanTransitionTransaction(TransactionCreated, TransactionCompleted))
	assert.False(t, CanTransitionTransaction(TransactionCompleted, TransactionAccepted))

	assert.True(t, CanTransitionPayment(PaymentIssued, PaymentCaptured))
	assert.True(t, CanTransitionPayment(PaymentCaptured, PaymentReleased))
	assert.True(t, CanTransitionPayment(PaymentCaptured, PaymentRefunded))
	assert.False(t, CanTransitionPayment(PaymentIssued, PaymentReleased))
	assert.False(t, CanTransitionPayment(PaymentReleased, PaymentRefunded))

	err := ValidatePaymentTransition(PaymentRefunded, PaymentCaptured)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "TPS-04", ite.From)
}

func TestPaymentCodePredicates(t *testing.T) {
	assert.False(t, PaymentIssued.IsProviderConfirmed())
	assert.True(t, PaymentCaptured.IsProviderConfirmed())
	assert.False(t, PaymentCaptured.IsTerminal())
	assert.True(t, PaymentReleased.IsTerminal())
	assert.True(t, PaymentRefunded.IsTerminal())
	assert.True(t, TransactionCompleted.IsClosed())
}
