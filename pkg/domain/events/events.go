// Package events defines the notifications emitted after escrow state changes
// are committed.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type names an escrow event.
type Type string

const (
	TransactionCreated        Type = "transaction.created"
	TransactionCounterOffered Type = "transaction.counter_offered"
	TransactionConfirmed      Type = "transaction.confirmed"
	TransactionCompleted      Type = "transaction.completed"
	PaymentGenerated          Type = "payment.generated"
	PaymentCaptured           Type = "payment.captured"
	PaymentFailed             Type = "payment.failed"
	PaymentReleased           Type = "payment.released"
	PaymentRefunded           Type = "payment.refunded"
	// PaymentCapturedOnRetiredLink reports money taken on a link that no
	// longer backs the transaction. Operators refund it by hand.
	PaymentCapturedOnRetiredLink Type = "payment.captured_on_retired_link"
)

// Event is a committed escrow fact. It never carries unlock or security codes.
type Event struct {
	ID              uuid.UUID         `json:"id"`
	Kind            Type              `json:"type"`
	TransactionCode string            `json:"transactionCode"`
	Actor           string            `json:"actor,omitempty"`
	Amount          string            `json:"amount,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	OccurredAt      time.Time         `json:"occurredAt"`
}

// Type returns the event type.
func (e Event) Type() string { return string(e.Kind) }

// Option customizes a new event.
type Option func(*Event)

// WithActor records the user who caused the event.
func WithActor(username string) Option {
	return func(e *Event) { e.Actor = username }
}

// WithAmount records the amount involved.
func WithAmount(amount decimal.Decimal) Option {
	return func(e *Event) { e.Amount = amount.StringFixed(2) }
}

// WithAttr adds one attribute.
func WithAttr(key, value string) Option {
	return func(e *Event) {
		if e.Attributes == nil {
			e.Attributes = make(map[string]string)
		}
		e.Attributes[key] = value
	}
}

// New builds an event of type t for a transaction code.
func New(t Type, code string, opts ...Option) Event {
	e := Event{
		ID:              uuid.New(),
		Kind:            t,
		TransactionCode: code,
		OccurredAt:      time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
