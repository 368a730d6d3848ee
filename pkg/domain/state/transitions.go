package state

import (
	"fmt"
	"slices"
)

// TransactionTransitions lists the valid transaction state changes.
// TS-01 -> TS-01 is a counter-offer appending a new negotiation round.
var TransactionTransitions = map[TransactionCode][]TransactionCode{
	TransactionCreated:   {TransactionCreated, TransactionAccepted},
	TransactionAccepted:  {TransactionCompleted},
	TransactionCompleted: {}, // Terminal state
}

// PaymentTransitions lists the valid payment state changes.
var PaymentTransitions = map[PaymentCode][]PaymentCode{
	PaymentIssued:   {PaymentCaptured},
	PaymentCaptured: {PaymentReleased, PaymentRefunded},
	PaymentReleased: {}, // Terminal state
	PaymentRefunded: {}, // Terminal state
}

// InvalidTransitionError reports a rejected state change.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

func canTransition[T comparable](table map[T][]T, from, to T) bool {
	allowed, ok := table[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// CanTransitionTransaction checks if a transaction may move from one state to another.
func CanTransitionTransaction(from, to TransactionCode) bool {
	return canTransition(TransactionTransitions, from, to)
}

// CanTransitionPayment checks if a payment may move from one state to another.
func CanTransitionPayment(from, to PaymentCode) bool {
	return canTransition(PaymentTransitions, from, to)
}

// ValidateTransactionTransition returns an error if the transition is not allowed.
func ValidateTransactionTransition(from, to TransactionCode) error {
	if !CanTransitionTransaction(from, to) {
		return &InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// ValidatePaymentTransition returns an error if the transition is not allowed.
func ValidatePaymentTransition(from, to PaymentCode) error {
	if !CanTransitionPayment(from, to) {
		return &InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}
