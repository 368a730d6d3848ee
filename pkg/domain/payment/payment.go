// Package payment models the escrow payment tied to a transaction code.
package payment

import (
	"time"

	"github.com/amirasaad/escrow/pkg/codegen"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider-facing payment status text kept alongside the lifecycle state.
const (
	StatusPending     = "pending"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusTransferred = "transferred_to_seller"
	StatusRefunded    = "refunded"
	// StatusRetiredCapture marks a retired link the buyer paid anyway. The
	// funds are held at the provider outside the escrow flow and need a
	// manual refund.
	StatusRetiredCapture = "captured_on_retired_link"
)

// Payment is one escrow payment. At most one active payment exists per
// transaction code.
type Payment struct {
	ID                      uuid.UUID
	TransactionCode         string
	Amount                  decimal.Decimal
	Currency                money.Code
	UnlockCode              string
	SecurityCode            string
	ProviderLinkID          string
	ProviderPaymentIntentID string
	ProviderTransferID      string
	ProviderRefundID        string
	PaymentURL              string
	State                   state.PaymentCode
	PaymentStatus           string
	IsProviderPayment       bool
	IsActive                bool
	Payouts                 []Payout
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Payout is one transfer of released funds to one seller.
type Payout struct {
	ID             uuid.UUID
	SellerUsername string
	TransferID     string
	TransferStatus string
	Amount         decimal.Decimal
	Commission     decimal.Decimal
	CreatedAt      time.Time
}

// PaidSeller reports whether seller already received a payout.
func (p *Payment) PaidSeller(seller string) bool {
	for _, po := range p.Payouts {
		if po.SellerUsername == seller {
			return true
		}
	}
	return false
}

// New returns an issued (TPS-01) payment for a hosted payment link.
func New(
	code string,
	amount decimal.Decimal,
	currency money.Code,
	secrets codegen.Secrets,
	linkID, url string,
	now time.Time,
) *Payment {
	return &Payment{
		ID:                uuid.New(),
		TransactionCode:   code,
		Amount:            amount,
		Currency:          currency,
		UnlockCode:        secrets.UnlockCode,
		SecurityCode:      secrets.SecurityCode,
		ProviderLinkID:    linkID,
		PaymentURL:        url,
		State:             state.PaymentIssued,
		PaymentStatus:     StatusPending,
		IsProviderPayment: true,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsReusable reports whether the payment link can be handed out again.
func (p *Payment) IsReusable() bool {
	return p.IsActive && p.State == state.PaymentIssued
}

// Capture moves an issued payment to TPS-02 and records the provider's
// payment intent.
func (p *Payment) Capture(paymentIntentID string, now time.Time) error {
	if p.State.IsProviderConfirmed() {
		return ErrAlreadyPaid
	}
	if err := state.ValidatePaymentTransition(p.State, state.PaymentCaptured); err != nil {
		return err
	}
	p.State = state.PaymentCaptured
	p.PaymentStatus = StatusCompleted
	if paymentIntentID != "" {
		p.ProviderPaymentIntentID = paymentIntentID
	}
	p.UpdatedAt = now
	return nil
}

// MarkFailed records a provider-reported failure. The lifecycle state is
// left at TPS-01 so the buyer can retry the same link.
func (p *Payment) MarkFailed(now time.Time) {
	if p.State != state.PaymentIssued {
		return
	}
	p.PaymentStatus = StatusFailed
	p.UpdatedAt = now
}

// Release moves a captured payment to TPS-03 after a seller transfer.
func (p *Payment) Release(transferID string, now time.Time) error {
	if p.PaymentStatus == StatusTransferred {
		return ErrAlreadyTransferred
	}
	if err := state.ValidatePaymentTransition(p.State, state.PaymentReleased); err != nil {
		return err
	}
	p.State = state.PaymentReleased
	p.PaymentStatus = StatusTransferred
	p.ProviderTransferID = transferID
	p.UpdatedAt = now
	return nil
}

// Refund moves a captured payment to TPS-04.
func (p *Payment) Refund(refundID string, now time.Time) error {
	if err := state.ValidatePaymentTransition(p.State, state.PaymentRefunded); err != nil {
		return err
	}
	p.State = state.PaymentRefunded
	p.PaymentStatus = StatusRefunded
	p.ProviderRefundID = refundID
	p.UpdatedAt = now
	return nil
}

// FlagRetiredCapture records a capture reported for a retired link. The
// payment stays inactive and its lifecycle state is left untouched. It
// reports false when the capture was already flagged.
func (p *Payment) FlagRetiredCapture(paymentIntentID string, now time.Time) bool {
	if p.PaymentStatus == StatusRetiredCapture {
		return false
	}
	p.PaymentStatus = StatusRetiredCapture
	if paymentIntentID != "" {
		p.ProviderPaymentIntentID = paymentIntentID
	}
	p.UpdatedAt = now
	return true
}

// Deactivate retires a pending link so a new one can be issued.
func (p *Payment) Deactivate(now time.Time) {
	p.IsActive = false
	p.UpdatedAt = now
}
