package settlement

import (
	"testing"

	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		amount     string
		commission string
		net        string
	}{
		{"1000.00", "60.00", "940.00"},
		{"0.10", "0.01", "0.09"},
		{"12.34", "0.74", "11.60"},
		{"99.99", "6.00", "93.99"},
		{"0", "0.00", "0.00"},
	}
	for _, tc := range tests {
		t.Run(tc.amount, func(t *testing.T) {
			b := Calculate(decimal.RequireFromString(tc.amount))
			assert.Equal(t, tc.commission, money.Format(b.Commission))
			assert.Equal(t, tc.net, money.Format(b.Net))
			assert.True(t, b.Commission.Add(b.Net).Equal(money.Round2(b.Original)))
		})
	}
}

func TestRatePercent(t *testing.T) {
	assert.Equal(t, "6", RatePercent())
}

func TestCheckTransfer(t *testing.T) {
	assert.NoError(t, CheckTransfer(TransferPaid))
	assert.NoError(t, CheckTransfer(TransferPending))

	err := CheckTransfer(TransferCanceled)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Retryable)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.ErrorContains(t, CheckTransfer("weird"), "unknown transfer status")
}

func TestCheckRefund(t *testing.T) {
	assert.NoError(t, CheckRefund(RefundSucceeded))

	var se *StatusError
	require.ErrorAs(t, CheckRefund(RefundPending), &se)
	assert.True(t, se.Retryable)

	require.ErrorAs(t, CheckRefund(RefundFailed), &se)
	assert.False(t, se.Retryable)
	assert.Equal(t, "failed", se.Status)
}
