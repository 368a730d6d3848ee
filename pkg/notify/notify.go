// Package notify defines the buyer-directed channel that carries secrets the
// escrow flow must never return from a read endpoint or publish on the event
// bus.
package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

// UnlockCode tells the buyer the code that completes a paid transaction.
type UnlockCode struct {
	TransactionCode string          `json:"transactionCode"`
	BuyerUsername   string          `json:"buyerUsername"`
	BuyerEmail      string          `json:"buyerEmail,omitempty"`
	UnlockCode      string          `json:"unlockCode"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// Notifier delivers notices to one recipient.
type Notifier interface {
	SendUnlockCode(ctx context.Context, n UnlockCode) error
}
