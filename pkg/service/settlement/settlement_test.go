package settlement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/escrow/infra/provider/mockpayment"
	"github.com/amirasaad/escrow/internal/fixtures"
	"github.com/amirasaad/escrow/internal/fixtures/catalog"
	pay "github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/settlement"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/money"
	transactionsvc "github.com/amirasaad/escrow/pkg/service/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captured creates a 1000.00 guitar sale and captures its payment.
func captured(t *testing.T) (*fixtures.Escrow, fixtures.Services, string) {
	t.Helper()
	env := fixtures.NewEscrow(t)
	svcs := env.Services()
	ctx := context.Background()
	created, err := svcs.Transactions.Create(ctx, fixtures.GuitarSale(2))
	require.NoError(t, err)
	env.Provider.Complete(created.PaymentID)
	require.NoError(t, svcs.Payments.Confirm(ctx, created.TransactionCode))
	return env, svcs, created.TransactionCode
}

// completed moves a captured sale to TS-03 without releasing funds.
func completed(t *testing.T) (*fixtures.Escrow, fixtures.Services, string) {
	t.Helper()
	env, svcs, code := captured(t)
	env.Provider.FailNext(mockpayment.OpTransfer, errors.New("transfers paused"))
	res, err := svcs.Transactions.Complete(context.Background(), code, env.UnlockCode(t, "buyer", code))
	require.NoError(t, err)
	require.Error(t, res.TransferError)
	return env, svcs, code
}

func TestChargeToSeller_RetainsCommission(t *testing.T) {
	env, svcs, code := completed(t)

	release, err := svcs.Settlement.ChargeToSeller(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "mock_tr_1", release.TransferID)
	assert.Equal(t, settlement.TransferPaid, release.TransferStatus)
	assert.Equal(t, "1000.00", money.Format(release.Breakdown.Original))
	assert.Equal(t, "60.00", money.Format(release.Breakdown.Commission))
	assert.Equal(t, "940.00", money.Format(release.Breakdown.Net))

	transfers := env.Provider.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, int64(94000), transfers[0].AmountMinor)
	assert.Equal(t, "acct_seller", transfers[0].DestinationAccountID)
	assert.Equal(t, code, transfers[0].GroupTag)
	assert.Equal(t, "60.00", transfers[0].Metadata["platform_commission"])

	p := env.ActivePayment(t, code)
	assert.Equal(t, state.PaymentReleased, p.State)
	assert.Equal(t, pay.StatusTransferred, p.PaymentStatus)
	assert.Equal(t, "mock_tr_1", p.ProviderTransferID)

	_, err = svcs.Settlement.ChargeToSeller(context.Background(), code)
	assert.ErrorIs(t, err, pay.ErrAlreadyTransferred)
	assert.Len(t, env.Provider.Transfers(), 1)
}

func TestChargeToSeller_RequiresCompletion(t *testing.T) {
	env, svcs, code := captured(t)

	_, err := svcs.Settlement.ChargeToSeller(context.Background(), code)
	assert.ErrorIs(t, err, pay.ErrNotReleasable)
	assert.Empty(t, env.Provider.Transfers())
}

func TestChargeToSeller_PendingTransferReleases(t *testing.T) {
	env, svcs, code := completed(t)
	env.Provider.TransferStatus = settlement.TransferPending

	release, err := svcs.Settlement.ChargeToSeller(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, settlement.TransferPending, release.TransferStatus)
	assert.Equal(t, state.PaymentReleased, env.ActivePayment(t, code).State)
}

func TestChargeToSeller_RejectedTransferChangesNothing(t *testing.T) {
	env, svcs, code := completed(t)
	env.Provider.TransferStatus = settlement.TransferCanceled

	_, err := svcs.Settlement.ChargeToSeller(context.Background(), code)
	var se *settlement.StatusError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Retryable)
	assert.Equal(t, state.PaymentCaptured, env.ActivePayment(t, code).State)
}

func TestChargeToSeller_NoPayoutAccount(t *testing.T) {
	env := fixtures.NewEscrow(t)
	svcs := env.Services()
	ctx := context.Background()
	created, err := svcs.Transactions.Create(ctx, transactionsvc.CreateRequest{
		SellerUsername:   "maker",
		BuyerUsername:    "buyer",
		ProfileProductID: catalog.AmplifierID,
		Units:            1,
	})
	require.NoError(t, err)
	env.Provider.Complete(created.PaymentID)
	require.NoError(t, svcs.Payments.Confirm(ctx, created.TransactionCode))

	res, err := svcs.Transactions.Complete(ctx, created.TransactionCode, env.UnlockCode(t, "buyer", created.TransactionCode))
	require.NoError(t, err)
	assert.ErrorIs(t, res.TransferError, pay.ErrNoPayoutAccount)

	_, err = svcs.Settlement.LinkPayoutAccount(ctx, "maker", "")
	require.NoError(t, err)
	release, err := svcs.Settlement.ChargeToSeller(ctx, created.TransactionCode)
	require.NoError(t, err)
	assert.Equal(t, "940.00", money.Format(release.Breakdown.Net))
	assert.Equal(t, "acct_mock_maker", env.Provider.Transfers()[0].DestinationAccountID)
}

func TestChargeToSeller_CartPaysEachSeller(t *testing.T) {
	env := fixtures.NewEscrow(t)
	svcs := env.Services()
	ctx := context.Background()
	created, err := svcs.Transactions.GenerateFromCart(ctx, fixtures.CartCheckout(2, 1))
	require.NoError(t, err)
	env.Provider.Complete(created.PaymentID)
	require.NoError(t, svcs.Payments.Confirm(ctx, created.TransactionCode))

	code := created.TransactionCode
	res, err := svcs.Transactions.Complete(ctx, code, env.UnlockCode(t, "buyer", code))
	require.NoError(t, err)
	assert.ErrorIs(t, res.TransferError, pay.ErrNoPayoutAccount)

	transfers := env.Provider.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "acct_seller", transfers[0].DestinationAccountID)
	assert.Equal(t, int64(94000), transfers[0].AmountMinor)
	assert.Equal(t, "seller", transfers[0].Metadata["seller_username"])
	p := env.ActivePayment(t, code)
	assert.Equal(t, state.PaymentCaptured, p.State)
	require.Len(t, p.Payouts, 1)
	assert.True(t, p.PaidSeller("seller"))
	assert.Equal(t, "940.00", money.Format(p.Payouts[0].Amount))

	_, err = svcs.Settlement.LinkPayoutAccount(ctx, "maker", "")
	require.NoError(t, err)
	release, err := svcs.Settlement.ChargeToSeller(ctx, code)
	require.NoError(t, err)
	require.Len(t, release.Transfers, 1)
	assert.Equal(t, "maker", release.Transfers[0].SellerUsername)
	assert.Equal(t, "940.00", money.Format(release.Transfers[0].Breakdown.Net))
	assert.Equal(t, "2000.00", money.Format(release.Breakdown.Original))
	assert.Equal(t, "120.00", money.Format(release.Breakdown.Commission))

	transfers = env.Provider.Transfers()
	require.Len(t, transfers, 2)
	assert.Equal(t, "acct_mock_maker", transfers[1].DestinationAccountID)
	p = env.ActivePayment(t, code)
	assert.Equal(t, state.PaymentReleased, p.State)
	assert.Len(t, p.Payouts, 2)

	_, err = svcs.Settlement.ChargeToSeller(ctx, code)
	assert.ErrorIs(t, err, pay.ErrAlreadyTransferred)
	assert.Len(t, env.Provider.Transfers(), 2)
}

func TestChargeToSeller_RejectedCartTransferKeepsEarlierPayouts(t *testing.T) {
	env := fixtures.NewEscrow(t)
	svcs := env.Services()
	ctx := context.Background()
	_, err := svcs.Settlement.LinkPayoutAccount(ctx, "maker", "")
	require.NoError(t, err)
	created, err := svcs.Transactions.GenerateFromCart(ctx, fixtures.CartCheckout(1, 1))
	require.NoError(t, err)
	env.Provider.Complete(created.PaymentID)
	require.NoError(t, svcs.Payments.Confirm(ctx, created.TransactionCode))

	code := created.TransactionCode
	env.Provider.FailNext(mockpayment.OpTransfer, errors.New("transfers paused"))
	res, err := svcs.Transactions.Complete(ctx, code, env.UnlockCode(t, "buyer", code))
	require.NoError(t, err)
	require.Error(t, res.TransferError)
	assert.Empty(t, env.ActivePayment(t, code).Payouts)

	release, err := svcs.Settlement.ChargeToSeller(ctx, code)
	require.NoError(t, err)
	assert.Len(t, release.Transfers, 2)
	assert.Equal(t, "470.00", money.Format(release.Transfers[0].Breakdown.Net))
	assert.Equal(t, state.PaymentReleased, env.ActivePayment(t, code).State)
}

func TestRefund_RetainsCommission(t *testing.T) {
	env, svcs, code := captured(t)

	res, err := svcs.Settlement.Refund(context.Background(), code, "item not as described")
	require.NoError(t, err)
	assert.Equal(t, "mock_re_1", res.RefundID)
	assert.Equal(t, "60.00", money.Format(res.Breakdown.Commission))
	assert.Equal(t, "940.00", money.Format(res.Breakdown.Net))

	refunds := env.Provider.Refunds()
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(94000), refunds[0].AmountMinor)
	assert.Equal(t, "mock_pi_mock_cs_1", refunds[0].PaymentIntentID)
	assert.Equal(t, "item not as described", refunds[0].Reason)

	p := env.ActivePayment(t, code)
	assert.Equal(t, state.PaymentRefunded, p.State)
	assert.Equal(t, pay.StatusRefunded, p.PaymentStatus)

	_, err = svcs.Settlement.Refund(context.Background(), code, "again")
	assert.ErrorIs(t, err, pay.ErrNotCaptured)
}

func TestRefund_PendingIsRetryable(t *testing.T) {
	env, svcs, code := captured(t)
	env.Provider.RefundStatus = settlement.RefundPending

	_, err := svcs.Settlement.Refund(context.Background(), code, "")
	var se *settlement.StatusError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Retryable)
	assert.Equal(t, state.PaymentCaptured, env.ActivePayment(t, code).State)

	env.Provider.RefundStatus = settlement.RefundSucceeded
	_, err = svcs.Settlement.Refund(context.Background(), code, "")
	require.NoError(t, err)
	assert.Equal(t, state.PaymentRefunded, env.ActivePayment(t, code).State)
}

func TestRefund_RequiresCapture(t *testing.T) {
	env := fixtures.NewEscrow(t)
	svcs := env.Services()
	created, err := svcs.Transactions.Create(context.Background(), fixtures.GuitarSale(1))
	require.NoError(t, err)

	_, err = svcs.Settlement.Refund(context.Background(), created.TransactionCode, "")
	assert.ErrorIs(t, err, pay.ErrNotCaptured)
	assert.Empty(t, env.Provider.Refunds())
}

func TestRefund_ProviderErrorChangesNothing(t *testing.T) {
	env, svcs, code := captured(t)
	env.Provider.FailNext(mockpayment.OpRefund, errors.New("upstream unavailable"))

	_, err := svcs.Settlement.Refund(context.Background(), code, "")
	assert.ErrorContains(t, err, "payment provider create_refund")
	assert.Equal(t, state.PaymentCaptured, env.ActivePayment(t, code).State)
}

func TestSummary(t *testing.T) {
	env := fixtures.NewEscrow(t)
	svcs := env.Services()
	ctx := context.Background()

	env.Provider.FailNext(mockpayment.OpCreateLink, errors.New("down"))
	created, err := svcs.Transactions.Create(ctx, fixtures.GuitarSale(2))
	require.ErrorIs(t, err, transactionsvc.ErrPaymentLinkPending)

	sum, err := svcs.Settlement.Summary(ctx, created.TransactionCode)
	require.NoError(t, err)
	assert.Empty(t, sum.PaymentState)
	assert.Equal(t, "HNL", sum.Currency)
	assert.Equal(t, "60.00", money.Format(sum.Breakdown.Commission))

	_, err = svcs.Payments.Generate(ctx, created.TransactionCode)
	require.NoError(t, err)
	sum, err = svcs.Settlement.Summary(ctx, created.TransactionCode)
	require.NoError(t, err)
	assert.Equal(t, string(state.PaymentIssued), sum.PaymentState)
	assert.Equal(t, "940.00", money.Format(sum.Breakdown.Net))
	assert.Equal(t, "0.06", sum.Breakdown.Rate.String())
}

func TestLinkPayoutAccount(t *testing.T) {
	env := fixtures.NewEscrow(t)
	svc := env.Services().Settlement
	ctx := context.Background()

	id, err := svc.LinkPayoutAccount(ctx, "buyer", "")
	require.NoError(t, err)
	assert.Equal(t, "acct_mock_buyer", id)

	_, err = svc.LinkPayoutAccount(ctx, "buyer", "other@example.com")
	assert.ErrorIs(t, err, pay.ErrPayoutAccountExists)
	_, err = svc.LinkPayoutAccount(ctx, "seller", "")
	assert.ErrorIs(t, err, pay.ErrPayoutAccountExists)
	_, err = svc.LinkPayoutAccount(ctx, "ghost", "ghost@example.com")
	assert.ErrorIs(t, err, pay.ErrProfileNotFound)
}
