package payment_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/amirasaad/escrow/infra/provider/mockpayment"
	"github.com/amirasaad/escrow/internal/fixtures"
	pay "github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	provider "github.com/amirasaad/escrow/pkg/provider/payment"
	paymentsvc "github.com/amirasaad/escrow/pkg/service/payment"
	transactionsvc "github.com/amirasaad/escrow/pkg/service/transaction"
	"github.com/amirasaad/escrow/webapi/common"
	paymentweb "github.com/amirasaad/escrow/webapi/payment"
	"github.com/amirasaad/escrow/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const base = "/transactions/payment"

type PaymentE2ETestSuite struct {
	testutils.E2ETestSuite
	code   string
	linkID string
}

func (s *PaymentE2ETestSuite) SetupTest() {
	s.E2ETestSuite.SetupTest()
	created, err := s.Svcs.Transactions.Create(s.T().Context(), fixtures.GuitarSale(2))
	s.Require().NoError(err)
	s.code = created.TransactionCode
	s.linkID = created.PaymentID
}

func (s *PaymentE2ETestSuite) webhook(body mockpayment.WebhookBody) *http.Response {
	payload, sig := s.Env.Webhook(s.T(), body)
	return s.MakeRawRequest(fiber.MethodPost, base+"/webhook", payload, map[string]string{
		paymentweb.SignatureHeader: sig,
	})
}

func (s *PaymentE2ETestSuite) TestGenerateReturnsExistingLink() {
	resp := s.MakeRequest(fiber.MethodPost, base+"/generate", map[string]string{"transactionCode": s.code})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var link paymentsvc.Link
	s.DecodeData(resp, &link)
	s.Equal(s.linkID, link.PaymentID)

	resp = s.MakeRequest(fiber.MethodPost, base+"/generate", map[string]string{})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *PaymentE2ETestSuite) TestSuccessRedirect() {
	resp := s.MakeRequest(fiber.MethodGet, base+"/success?transaction="+s.code, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode, "checkout not paid yet")

	s.Env.Provider.Complete(s.linkID)
	resp = s.MakeRequest(fiber.MethodGet, base+"/success?transaction="+s.code, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.MakeRequest(fiber.MethodGet, base+"/success?transaction="+s.code, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("the transaction has already been paid", s.Decode(resp).Message)
}

func (s *PaymentE2ETestSuite) TestStatus() {
	resp := s.MakeRequest(fiber.MethodGet, base+"/status/"+s.code, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var view paymentsvc.StatusView
	env := s.DecodeData(resp, &view)
	s.Equal(common.StatusSuccess, env.Status)
	s.Equal(string(state.PaymentIssued), view.State)
	s.Equal(s.linkID, view.PaymentID)
}

func (s *PaymentE2ETestSuite) TestWebhookCapturesOnce() {
	s.Env.Provider.Complete(s.linkID)
	body := mockpayment.WebhookBody{
		ID:     "evt_1",
		Kind:   provider.KindCheckoutCompleted,
		LinkID: s.linkID,
		Paid:   true,
	}

	for range 2 {
		resp := s.webhook(body)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var ack map[string]bool
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&ack))
		s.True(ack["received"])
	}
	s.Equal(state.PaymentCaptured, s.Env.ActivePayment(s.T(), s.code).State)
}

func (s *PaymentE2ETestSuite) TestWebhookRejectsBadSignature() {
	payload, _ := s.Env.Webhook(s.T(), mockpayment.WebhookBody{ID: "evt_2", Kind: provider.KindPaymentSucceeded})
	resp := s.MakeRawRequest(fiber.MethodPost, base+"/webhook", payload, map[string]string{
		paymentweb.SignatureHeader: "00",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(provider.ErrSignature.Error(), string(raw))

	resp = s.MakeRawRequest(fiber.MethodPost, base+"/webhook", payload, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *PaymentE2ETestSuite) TestWebhookForUnknownLinkIsAcknowledged() {
	resp := s.webhook(mockpayment.WebhookBody{
		ID:     "evt_3",
		Kind:   provider.KindCheckoutCompleted,
		LinkID: "cs_not_ours",
		Paid:   true,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var ack map[string]bool
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&ack))
	s.True(ack["received"])
	s.Equal(state.PaymentIssued, s.Env.ActivePayment(s.T(), s.code).State)
}

func (s *PaymentE2ETestSuite) TestWebhookOnRetiredLinkIsFlagged() {
	stale := s.linkID
	s.Require().NoError(s.Svcs.Transactions.CounterOffer(s.T().Context(), transactionsvc.CounterOfferRequest{
		TransactionCode: s.code,
		Username:        "seller",
		Units:           2,
		Amount:          decimal.RequireFromString("900.00"),
	}))
	s.True(s.Env.Provider.Expired(stale))

	resp := s.webhook(s.Env.PaidWebhook(s.T(), "evt_4", stale, "pi_stale"))
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(pay.StatusRetiredCapture, s.Env.Payment(s.T(), stale).PaymentStatus)
	s.Equal(state.PaymentIssued, s.Env.ActivePayment(s.T(), s.code).State)
}

func (s *PaymentE2ETestSuite) TestWebhookPaymentSucceededByPaymentID() {
	resp := s.webhook(mockpayment.WebhookBody{
		ID:              "evt_5",
		Kind:            provider.KindPaymentSucceeded,
		PaymentIntentID: "pi_direct",
		PaymentRef:      s.Env.ActivePayment(s.T(), s.code).ID.String(),
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	p := s.Env.ActivePayment(s.T(), s.code)
	s.Equal(state.PaymentCaptured, p.State)
	s.Equal("pi_direct", p.ProviderPaymentIntentID)
}

func (s *PaymentE2ETestSuite) TestResendUnlockCode() {
	resp := s.MakeRequest(fiber.MethodPost, base+"/resend-unlock-code", map[string]string{"transactionCode": s.code})
	s.Equal(http.StatusBadRequest, resp.StatusCode, "nothing captured yet")

	s.Env.Provider.Complete(s.linkID)
	s.Require().NoError(s.Svcs.Payments.Confirm(s.T().Context(), s.code))
	s.Len(s.Env.Notifier.Inbox("buyer"), 1)

	resp = s.MakeRequest(fiber.MethodPost, base+"/resend-unlock-code", map[string]string{"transactionCode": s.code})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.NotContains(string(raw), s.Env.UnlockCode(s.T(), "buyer", s.code))
	s.Len(s.Env.Notifier.Inbox("buyer"), 2)
}

func TestPaymentE2ETestSuite(t *testing.T) {
	suite.Run(t, new(PaymentE2ETestSuite))
}
