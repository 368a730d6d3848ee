package payment

import (
	"testing"
	"time"

	"github.com/amirasaad/escrow/pkg/codegen"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssued() *Payment {
	return New(
		"T-000007",
		decimal.RequireFromString("1000"),
		money.HNL,
		codegen.Secrets{UnlockCode: "UNLOCK", SecurityCode: "SECURE"},
		"cs_test_1",
		"https://pay.example/cs_test_1",
		time.Now(),
	)
}

func TestNew(t *testing.T) {
	p := newIssued()
	assert.Equal(t, state.PaymentIssued, p.State)
	assert.Equal(t, StatusPending, p.PaymentStatus)
	assert.True(t, p.IsReusable())
	assert.True(t, p.IsProviderPayment)
}

func TestCapture(t *testing.T) {
	p := newIssued()
	require.NoError(t, p.Capture("pi_1", time.Now()))
	assert.Equal(t, state.PaymentCaptured, p.State)
	assert.Equal(t, "pi_1", p.ProviderPaymentIntentID)
	assert.False(t, p.IsReusable())

	// second capture is an already-paid outcome, not a state change
	assert.ErrorIs(t, p.Capture("pi_2", time.Now()), ErrAlreadyPaid)
	assert.Equal(t, "pi_1", p.ProviderPaymentIntentID)
}

func TestMarkFailed_KeepsState(t *testing.T) {
	p := newIssued()
	p.MarkFailed(time.Now())
	assert.Equal(t, state.PaymentIssued, p.State)
	assert.Equal(t, StatusFailed, p.PaymentStatus)
	assert.True(t, p.IsReusable())
}

func TestRelease(t *testing.T) {
	p := newIssued()
	err := p.Release("tr_1", time.Now())
	var ite *state.InvalidTransitionError
	require.ErrorAs(t, err, &ite)

	require.NoError(t, p.Capture("pi_1", time.Now()))
	require.NoError(t, p.Release("tr_1", time.Now()))
	assert.Equal(t, state.PaymentReleased, p.State)
	assert.Equal(t, StatusTransferred, p.PaymentStatus)
	assert.ErrorIs(t, p.Release("tr_2", time.Now()), ErrAlreadyTransferred)
}

func TestRefund(t *testing.T) {
	p := newIssued()
	require.NoError(t, p.Capture("pi_1", time.Now()))
	require.NoError(t, p.Refund("re_1", time.Now()))
	assert.Equal(t, state.PaymentRefunded, p.State)
	assert.True(t, p.State.IsTerminal())
	assert.Error(t, p.Refund("re_2", time.Now()))
}

func TestFlagRetiredCapture(t *testing.T) {
	p := newIssued()
	p.Deactivate(time.Now())

	assert.True(t, p.FlagRetiredCapture("pi_stale", time.Now()))
	assert.Equal(t, StatusRetiredCapture, p.PaymentStatus)
	assert.Equal(t, state.PaymentIssued, p.State)
	assert.Equal(t, "pi_stale", p.ProviderPaymentIntentID)
	assert.False(t, p.IsActive)

	// redelivery is not flagged twice
	assert.False(t, p.FlagRetiredCapture("pi_stale", time.Now()))
}

func TestPaidSeller(t *testing.T) {
	p := newIssued()
	assert.False(t, p.PaidSeller("seller"))
	p.Payouts = append(p.Payouts, Payout{SellerUsername: "seller", TransferID: "tr_1"})
	assert.True(t, p.PaidSeller("seller"))
	assert.False(t, p.PaidSeller("maker"))
}
