// Package payment defines the hosted-payment capability the escrow core
// consumes: payment links, status polling, webhook decoding, seller transfers,
// refunds and payout account onboarding. Amounts cross this boundary in minor
// units.
package payment

import (
	"context"
)

// LinkStatus is the normalized status of a hosted payment link.
type LinkStatus string

const (
	LinkPending   LinkStatus = "pending"
	LinkCompleted LinkStatus = "completed"
	LinkFailed    LinkStatus = "failed"
)

// LinkRequest describes a hosted payment link to create.
type LinkRequest struct {
	AmountMinor   int64
	Currency      string
	Description   string
	ReferenceCode string
	// PaymentRef is the escrow payment id. It travels back on every webhook
	// of the link so a delivery resolves to exactly one payment.
	PaymentRef string
	Metadata   map[string]string
}

// Link is a created hosted payment link.
type Link struct {
	ID  string
	URL string
}

// LinkState is the result of polling a payment link.
type LinkState struct {
	Status          LinkStatus
	PaymentIntentID string
	ChargeID        string
	SessionID       string
}

// TransferRequest moves funds to a connected payout account.
type TransferRequest struct {
	AmountMinor          int64
	Currency             string
	DestinationAccountID string
	Description          string
	GroupTag             string
	Metadata             map[string]string
}

// RefundRequest returns funds of a captured payment to the buyer.
type RefundRequest struct {
	PaymentIntentID string
	AmountMinor     int64
	Reason          string
	Metadata        map[string]string
}

// Result is the provider's answer to a transfer or refund. Status is the
// provider's own status text; the settlement engine interprets it.
type Result struct {
	ID     string
	Status string
}

// PayoutAccountRequest creates a connected account able to receive transfers.
type PayoutAccountRequest struct {
	Username string
	Email    string
	Country  string
}

// Provider is the payment provider capability.
type Provider interface {
	CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error)
	PollStatus(ctx context.Context, linkID string) (*LinkState, error)
	// ExpirePaymentLink closes an open link so it can no longer be paid.
	// Expiring an already expired link succeeds; a completed one returns
	// ErrLinkNotExpirable.
	ExpirePaymentLink(ctx context.Context, linkID string) error
	// ParseWebhook verifies the signature and decodes the delivery. A nil
	// Event with a nil error is a delivery of a kind the escrow flow ignores.
	ParseWebhook(payload []byte, signature string) (Event, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*Result, error)
	CreateRefund(ctx context.Context, req RefundRequest) (*Result, error)
	CreatePayoutAccount(ctx context.Context, req PayoutAccountRequest) (string, error)
}
