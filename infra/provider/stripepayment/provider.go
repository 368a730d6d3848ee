package stripepayment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/amirasaad/escrow/pkg/config"
	"github.com/amirasaad/escrow/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Metadata key carrying the transaction code on sessions, payment intents,
// transfers and refunds.
const metadataTransactionCode = "transaction_code"

// Metadata key carrying the escrow payment id on sessions and payment
// intents.
const metadataPaymentID = "payment_id"

// Transfer statuses derived from the Stripe transfer object, which has no
// status field of its own.
const (
	transferPaid     = "paid"
	transferPending  = "pending"
	transferCanceled = "canceled"
)

// StripePaymentProvider implements payment.Provider using hosted Checkout
// Sessions, Connect transfers and refunds.
type StripePaymentProvider struct {
	client *stripe.Client
	cfg    *config.Stripe
	logger *slog.Logger
}

// New creates a new StripePaymentProvider.
func New(cfg *config.Stripe, logger *slog.Logger, opts ...stripe.ClientOption) *StripePaymentProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripePaymentProvider{
		client: stripe.NewClient(cfg.ApiKey, opts...),
		cfg:    cfg,
		logger: logger.With("provider", "stripe"),
	}
}

// CreatePaymentLink creates a hosted Checkout Session for one line item.
func (s *StripePaymentProvider) CreatePaymentLink(
	ctx context.Context,
	req payment.LinkRequest,
) (*payment.Link, error) {
	metadata := map[string]string{metadataTransactionCode: req.ReferenceCode}
	if req.PaymentRef != "" {
		metadata[metadataPaymentID] = req.PaymentRef
	}
	maps.Copy(metadata, req.Metadata)

	params := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(withReference(s.cfg.SuccessPath, req.ReferenceCode)),
		CancelURL:          stripe.String(withReference(s.cfg.CancelPath, req.ReferenceCode)),
		ClientReferenceID:  stripe.String(req.ReferenceCode),
		Metadata:           metadata,
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: metadata,
		},
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(req.Currency)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
				UnitAmount: stripe.Int64(req.AmountMinor),
			},
			Quantity: stripe.Int64(1),
		}},
	}

	session, err := s.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		s.logger.Error("failed to create checkout session", "transaction_code", req.ReferenceCode, "error", err)
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	s.logger.Info("Created checkout session", "transaction_code", req.ReferenceCode, "session_id", session.ID)
	return &payment.Link{ID: session.ID, URL: session.URL}, nil
}

// PollStatus retrieves a Checkout Session and normalizes its status.
func (s *StripePaymentProvider) PollStatus(ctx context.Context, linkID string) (*payment.LinkState, error) {
	session, err := s.client.V1CheckoutSessions.Retrieve(ctx, linkID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}
	return sessionState(session), nil
}

// ExpirePaymentLink expires an open Checkout Session. Stripe refuses to
// expire a session that is not open, so a refusal is resolved by reading the
// session back.
func (s *StripePaymentProvider) ExpirePaymentLink(ctx context.Context, linkID string) error {
	_, err := s.client.V1CheckoutSessions.Expire(ctx, linkID, nil)
	if err == nil {
		s.logger.Info("Expired checkout session", "session_id", linkID)
		return nil
	}
	session, rerr := s.client.V1CheckoutSessions.Retrieve(ctx, linkID, nil)
	if rerr != nil {
		return fmt.Errorf("failed to expire checkout session: %w", err)
	}
	switch session.Status {
	case stripe.CheckoutSessionStatusExpired:
		return nil
	case stripe.CheckoutSessionStatusComplete:
		return payment.ErrLinkNotExpirable
	}
	return fmt.Errorf("failed to expire checkout session: %w", err)
}

func sessionState(session *stripe.CheckoutSession) *payment.LinkState {
	st := &payment.LinkState{
		Status:    payment.LinkPending,
		SessionID: session.ID,
	}
	switch {
	case session.Status == stripe.CheckoutSessionStatusComplete &&
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		st.Status = payment.LinkCompleted
	case session.Status == stripe.CheckoutSessionStatusExpired:
		st.Status = payment.LinkFailed
	}
	if session.PaymentIntent != nil {
		st.PaymentIntentID = session.PaymentIntent.ID
		if session.PaymentIntent.LatestCharge != nil {
			st.ChargeID = session.PaymentIntent.LatestCharge.ID
		}
	}
	return st
}

// ParseWebhook verifies the Stripe-Signature header and decodes the three
// event kinds the escrow flow handles.
func (s *StripePaymentProvider) ParseWebhook(payload []byte, signature string) (payment.Event, error) {
	if s.cfg.SigningSecret == "" {
		return nil, fmt.Errorf("%w: signing secret not configured", payment.ErrSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.SigningSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrSignature, err)
	}
	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (payment.Event, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("%w: %s has no data", payment.ErrMalformedEvent, event.ID)
	}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		out := payment.CheckoutCompleted{
			ID:              event.ID,
			LinkID:          session.ID,
			TransactionCode: referenceOf(session.Metadata, session.ClientReferenceID),
			PaymentRef:      session.Metadata[metadataPaymentID],
			Paid:            session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		}
		if session.PaymentIntent != nil {
			out.PaymentIntentID = session.PaymentIntent.ID
		}
		return out, nil

	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		return payment.PaymentSucceeded{
			ID:              event.ID,
			PaymentIntentID: pi.ID,
			TransactionCode: referenceOf(pi.Metadata, ""),
			PaymentRef:      pi.Metadata[metadataPaymentID],
		}, nil

	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		out := payment.PaymentFailed{
			ID:              event.ID,
			PaymentIntentID: pi.ID,
			TransactionCode: referenceOf(pi.Metadata, ""),
			PaymentRef:      pi.Metadata[metadataPaymentID],
		}
		if pi.LastPaymentError != nil {
			out.Reason = pi.LastPaymentError.Msg
		}
		return out, nil
	}
	return nil, nil
}

func referenceOf(metadata map[string]string, fallback string) string {
	if code := metadata[metadataTransactionCode]; code != "" {
		return code
	}
	return fallback
}

// CreateTransfer sends funds to a connected account.
func (s *StripePaymentProvider) CreateTransfer(
	ctx context.Context,
	req payment.TransferRequest,
) (*payment.Result, error) {
	params := &stripe.TransferCreateParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		Destination:   stripe.String(req.DestinationAccountID),
		Description:   stripe.String(req.Description),
		TransferGroup: stripe.String(req.GroupTag),
	}
	params.AddMetadata(metadataTransactionCode, req.GroupTag)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	transfer, err := s.client.V1Transfers.Create(ctx, params)
	if err != nil {
		s.logger.Error("failed to create transfer", "transaction_code", req.GroupTag, "error", err)
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}
	return &payment.Result{ID: transfer.ID, Status: transferStatus(transfer)}, nil
}

func transferStatus(t *stripe.Transfer) string {
	switch {
	case t.Reversed:
		return transferCanceled
	case t.DestinationPayment != nil && t.DestinationPayment.ID != "":
		return transferPaid
	}
	return transferPending
}

// CreateRefund refunds part or all of a payment intent.
func (s *StripePaymentProvider) CreateRefund(
	ctx context.Context,
	req payment.RefundRequest,
) (*payment.Result, error) {
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
		Amount:        stripe.Int64(req.AmountMinor),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}

	refund, err := s.client.V1Refunds.Create(ctx, params)
	if err != nil {
		s.logger.Error("failed to create refund", "payment_intent_id", req.PaymentIntentID, "error", err)
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}
	return &payment.Result{ID: refund.ID, Status: string(refund.Status)}, nil
}

// CreatePayoutAccount creates an Express connected account with the transfers
// capability requested.
func (s *StripePaymentProvider) CreatePayoutAccount(
	ctx context.Context,
	req payment.PayoutAccountRequest,
) (string, error) {
	if req.Email == "" {
		return "", errors.New("email is required to create a payout account")
	}
	country := req.Country
	if country == "" {
		country = s.cfg.Country
	}
	params := &stripe.AccountCreateParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(strings.ToUpper(country)),
		Email:   stripe.String(req.Email),
		Capabilities: &stripe.AccountCreateCapabilitiesParams{
			Transfers: &stripe.AccountCreateCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.AddMetadata("username", req.Username)

	account, err := s.client.V1Accounts.Create(ctx, params)
	if err != nil {
		s.logger.Error("failed to create connected account", "username", req.Username, "error", err)
		return "", fmt.Errorf("failed to create connected account: %w", err)
	}
	s.logger.Info("Created connected account", "username", req.Username, "account_id", account.ID)
	return account.ID, nil
}

// withReference appends the transaction code as the query parameter the
// success endpoint reads.
func withReference(base, code string) string {
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "transaction=" + code
}

var _ payment.Provider = (*StripePaymentProvider)(nil)
