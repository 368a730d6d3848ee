package state

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownState   = errors.New("unknown state")
	ErrInactiveState  = errors.New("state is inactive")
	ErrDuplicateState = errors.New("duplicate state")
	ErrIncompleteSeed = errors.New("state registry is missing canonical codes")
)

// Registry resolves state codes to storage ids and back.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	txByCode  map[TransactionCode]State
	txByID    map[uint]State
	payByCode map[PaymentCode]State
	payByID   map[uint]State
}

// NewRegistry builds a registry from the persisted rows. Every canonical code
// must be present and active.
func NewRegistry(transactionStates, paymentStates []State) (*Registry, error) {
	r := &Registry{
		txByCode:  make(map[TransactionCode]State, len(transactionStates)),
		txByID:    make(map[uint]State, len(transactionStates)),
		payByCode: make(map[PaymentCode]State, len(paymentStates)),
		payByID:   make(map[uint]State, len(paymentStates)),
	}
	for _, s := range transactionStates {
		code := TransactionCode(s.Code)
		if _, dup := r.txByCode[code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateState, s.Code)
		}
		if _, dup := r.txByID[s.ID]; dup {
			return nil, fmt.Errorf("%w: transaction state id %d", ErrDuplicateState, s.ID)
		}
		r.txByCode[code] = s
		r.txByID[s.ID] = s
	}
	for _, s := range paymentStates {
		code := PaymentCode(s.Code)
		if _, dup := r.payByCode[code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateState, s.Code)
		}
		if _, dup := r.payByID[s.ID]; dup {
			return nil, fmt.Errorf("%w: payment state id %d", ErrDuplicateState, s.ID)
		}
		r.payByCode[code] = s
		r.payByID[s.ID] = s
	}

	for _, c := range []TransactionCode{TransactionCreated, TransactionAccepted, TransactionCompleted} {
		s, ok := r.txByCode[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteSeed, c)
		}
		if !s.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrInactiveState, c)
		}
	}
	for _, c := range []PaymentCode{PaymentIssued, PaymentCaptured, PaymentReleased, PaymentRefunded} {
		s, ok := r.payByCode[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteSeed, c)
		}
		if !s.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrInactiveState, c)
		}
	}
	return r, nil
}

// MustDefaultRegistry returns a registry over the canonical seed.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultTransactionStates(), DefaultPaymentStates())
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) TransactionState(code TransactionCode) (State, error) {
	s, ok := r.txByCode[code]
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownState, code)
	}
	return s, nil
}

func (r *Registry) TransactionStateByID(id uint) (State, error) {
	s, ok := r.txByID[id]
	if !ok {
		return State{}, fmt.Errorf("%w: transaction state id %d", ErrUnknownState, id)
	}
	return s, nil
}

func (r *Registry) PaymentState(code PaymentCode) (State, error) {
	s, ok := r.payByCode[code]
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownState, code)
	}
	return s, nil
}

func (r *Registry) PaymentStateByID(id uint) (State, error) {
	s, ok := r.payByID[id]
	if !ok {
		return State{}, fmt.Errorf("%w: payment state id %d", ErrUnknownState, id)
	}
	return s, nil
}

// TransactionID resolves a transaction state code to its storage id.
func (r *Registry) TransactionID(code TransactionCode) (uint, error) {
	s, err := r.TransactionState(code)
	return s.ID, err
}

// PaymentID resolves a payment state code to its storage id.
func (r *Registry) PaymentID(code PaymentCode) (uint, error) {
	s, err := r.PaymentState(code)
	return s.ID, err
}
