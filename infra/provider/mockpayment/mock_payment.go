package mockpayment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/amirasaad/escrow/pkg/provider/payment"
)

// ErrUnknownLink is returned when polling a link the provider never issued.
var ErrUnknownLink = errors.New("mock: unknown payment link")

type mockLink struct {
	req           payment.LinkRequest
	status        payment.LinkStatus
	paymentIntent string
	expired       bool
}

// MockPaymentProvider simulates a payment provider for tests and local development.
//
// Usage:
//   - CreatePaymentLink issues links that stay pending until Complete or Fail is called.
//   - PollStatus reports whatever state the link was last moved to.
//   - Webhook deliveries are JSON bodies signed with Sign.
//   - Transfers and refunds succeed with TransferStatus and RefundStatus unless
//     FailNext injects an error.
//
// This is NOT for production use.
type MockPaymentProvider struct {
	mu    sync.Mutex
	seq   int
	links map[string]*mockLink

	secret         string
	TransferStatus string
	RefundStatus   string

	failures  map[string]error
	transfers []payment.TransferRequest
	refunds   []payment.RefundRequest
	accounts  []payment.PayoutAccountRequest
}

// NewMockPaymentProvider creates a new instance of MockPaymentProvider.
func NewMockPaymentProvider(secret string) *MockPaymentProvider {
	return &MockPaymentProvider{
		links:          make(map[string]*mockLink),
		secret:         secret,
		TransferStatus: "paid",
		RefundStatus:   "succeeded",
		failures:       make(map[string]error),
	}
}

// Operation names accepted by FailNext.
const (
	OpCreateLink    = "create_link"
	OpPoll          = "poll"
	OpExpire        = "expire"
	OpTransfer      = "transfer"
	OpRefund        = "refund"
	OpPayoutAccount = "payout_account"
)

// FailNext makes the next call of op return err.
func (m *MockPaymentProvider) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *MockPaymentProvider) takeFailure(op string) error {
	err, ok := m.failures[op]
	if ok {
		delete(m.failures, op)
	}
	return err
}

// CreatePaymentLink issues a pending link.
func (m *MockPaymentProvider) CreatePaymentLink(
	_ context.Context,
	req payment.LinkRequest,
) (*payment.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpCreateLink); err != nil {
		return nil, err
	}
	m.seq++
	id := fmt.Sprintf("mock_cs_%d", m.seq)
	m.links[id] = &mockLink{req: req, status: payment.LinkPending}
	return &payment.Link{ID: id, URL: "https://pay.mock/checkout/" + id}, nil
}

// PollStatus reports the current state of a link.
func (m *MockPaymentProvider) PollStatus(_ context.Context, linkID string) (*payment.LinkState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpPoll); err != nil {
		return nil, err
	}
	l, ok := m.links[linkID]
	if !ok {
		return nil, ErrUnknownLink
	}
	return &payment.LinkState{
		Status:          l.status,
		PaymentIntentID: l.paymentIntent,
		SessionID:       linkID,
	}, nil
}

// ExpirePaymentLink closes a pending link. Completed links cannot be
// expired.
func (m *MockPaymentProvider) ExpirePaymentLink(_ context.Context, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpExpire); err != nil {
		return err
	}
	l, ok := m.links[linkID]
	if !ok {
		return ErrUnknownLink
	}
	if l.status == payment.LinkCompleted {
		return payment.ErrLinkNotExpirable
	}
	l.expired = true
	l.status = payment.LinkFailed
	return nil
}

// Expired reports whether linkID was expired.
func (m *MockPaymentProvider) Expired(linkID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[linkID]
	return ok && l.expired
}

// Complete marks a link paid and returns the payment intent id assigned to it.
// An expired link cannot be paid and yields "".
func (m *MockPaymentProvider) Complete(linkID string) string {
	return m.setStatus(linkID, payment.LinkCompleted)
}

// Fail marks a link failed.
func (m *MockPaymentProvider) Fail(linkID string) {
	m.setStatus(linkID, payment.LinkFailed)
}

func (m *MockPaymentProvider) setStatus(linkID string, status payment.LinkStatus) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[linkID]
	if !ok || l.expired {
		return ""
	}
	l.status = status
	if l.paymentIntent == "" {
		l.paymentIntent = "mock_pi_" + linkID
	}
	return l.paymentIntent
}

// LinkRequest returns the request a link was created with.
func (m *MockPaymentProvider) LinkRequest(linkID string) (payment.LinkRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[linkID]
	if !ok {
		return payment.LinkRequest{}, false
	}
	return l.req, true
}

// WebhookBody is the JSON shape the mock provider delivers.
type WebhookBody struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	LinkID          string `json:"link_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	TransactionCode string `json:"transaction_code,omitempty"`
	PaymentRef      string `json:"payment_id,omitempty"`
	Paid            bool   `json:"paid,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Sign returns the signature header value for payload.
func (m *MockPaymentProvider) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(m.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook verifies an HMAC-SHA256 signature and decodes a WebhookBody.
func (m *MockPaymentProvider) ParseWebhook(payload []byte, signature string) (payment.Event, error) {
	want, err := hex.DecodeString(signature)
	if err != nil || m.secret == "" {
		return nil, payment.ErrSignature
	}
	mac := hmac.New(sha256.New, []byte(m.secret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), want) {
		return nil, payment.ErrSignature
	}

	var body WebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
	}
	if body.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", payment.ErrMalformedEvent)
	}
	switch body.Kind {
	case payment.KindCheckoutCompleted:
		return payment.CheckoutCompleted{
			ID:              body.ID,
			LinkID:          body.LinkID,
			PaymentIntentID: body.PaymentIntentID,
			TransactionCode: body.TransactionCode,
			PaymentRef:      body.PaymentRef,
			Paid:            body.Paid,
		}, nil
	case payment.KindPaymentSucceeded:
		return payment.PaymentSucceeded{
			ID:              body.ID,
			PaymentIntentID: body.PaymentIntentID,
			TransactionCode: body.TransactionCode,
			PaymentRef:      body.PaymentRef,
		}, nil
	case payment.KindPaymentFailed:
		return payment.PaymentFailed{
			ID:              body.ID,
			PaymentIntentID: body.PaymentIntentID,
			TransactionCode: body.TransactionCode,
			PaymentRef:      body.PaymentRef,
			Reason:          body.Reason,
		}, nil
	}
	return nil, nil
}

// CreateTransfer records the transfer and answers with TransferStatus.
func (m *MockPaymentProvider) CreateTransfer(
	_ context.Context,
	req payment.TransferRequest,
) (*payment.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpTransfer); err != nil {
		return nil, err
	}
	m.transfers = append(m.transfers, req)
	return &payment.Result{
		ID:     fmt.Sprintf("mock_tr_%d", len(m.transfers)),
		Status: m.TransferStatus,
	}, nil
}

// CreateRefund records the refund and answers with RefundStatus.
func (m *MockPaymentProvider) CreateRefund(
	_ context.Context,
	req payment.RefundRequest,
) (*payment.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpRefund); err != nil {
		return nil, err
	}
	m.refunds = append(m.refunds, req)
	return &payment.Result{
		ID:     fmt.Sprintf("mock_re_%d", len(m.refunds)),
		Status: m.RefundStatus,
	}, nil
}

// CreatePayoutAccount returns a deterministic connected account id.
func (m *MockPaymentProvider) CreatePayoutAccount(
	_ context.Context,
	req payment.PayoutAccountRequest,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpPayoutAccount); err != nil {
		return "", err
	}
	m.accounts = append(m.accounts, req)
	return "acct_mock_" + req.Username, nil
}

// Transfers returns the transfers created so far.
func (m *MockPaymentProvider) Transfers() []payment.TransferRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]payment.TransferRequest(nil), m.transfers...)
}

// Refunds returns the refunds created so far.
func (m *MockPaymentProvider) Refunds() []payment.RefundRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]payment.RefundRequest(nil), m.refunds...)
}

var _ payment.Provider = (*MockPaymentProvider)(nil)
