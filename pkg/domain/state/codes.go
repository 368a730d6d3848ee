// Package state holds the transaction and payment state registries.
//
// Business logic refers to states only by their stable codes. Numeric ids are
// storage artifacts and are resolved through a Registry loaded at startup.
package state

// TransactionCode identifies a transaction lifecycle state.
type TransactionCode string

// PaymentCode identifies an escrow payment lifecycle state.
type PaymentCode string

const (
	// TransactionCreated is set at creation and while the parties negotiate.
	TransactionCreated TransactionCode = "TS-01"
	// TransactionAccepted means terms are agreed and the escrow awaits release.
	TransactionAccepted TransactionCode = "TS-02"
	// TransactionCompleted means the unlock code was exchanged.
	TransactionCompleted TransactionCode = "TS-03"
)

const (
	// PaymentIssued means a hosted payment link exists and awaits capture.
	PaymentIssued PaymentCode = "TPS-01"
	// PaymentCaptured means funds are captured and held in escrow.
	PaymentCaptured PaymentCode = "TPS-02"
	// PaymentReleased means the seller was paid minus commission.
	PaymentReleased PaymentCode = "TPS-03"
	// PaymentRefunded means the buyer was refunded minus commission.
	PaymentRefunded PaymentCode = "TPS-04"
)

func (c TransactionCode) String() string { return string(c) }

func (c PaymentCode) String() string { return string(c) }

// IsTerminal reports whether no further payment transition is possible.
func (c PaymentCode) IsTerminal() bool {
	return c == PaymentReleased || c == PaymentRefunded
}

// IsProviderConfirmed reports whether the provider has confirmed funds for
// this payment. A confirmed payment is never re-issued under the same code.
func (c PaymentCode) IsProviderConfirmed() bool {
	return c == PaymentCaptured || c.IsTerminal()
}

// IsClosed reports whether a transaction can no longer change state.
func (c TransactionCode) IsClosed() bool {
	return c == TransactionCompleted
}

// State is one registry row.
type State struct {
	ID          uint
	Code        string
	Description string
	IsActive    bool
}

// DefaultTransactionStates is the canonical transaction registry seed.
func DefaultTransactionStates() []State {
	return []State{
		{ID: 1, Code: string(TransactionCreated), Description: "Created, pending negotiation", IsActive: true},
		{ID: 2, Code: string(TransactionAccepted), Description: "Accepted, pending release", IsActive: true},
		{ID: 3, Code: string(TransactionCompleted), Description: "Completed", IsActive: true},
	}
}

// DefaultPaymentStates is the canonical payment registry seed.
func DefaultPaymentStates() []State {
	return []State{
		{ID: 1, Code: string(PaymentIssued), Description: "Payment link issued, awaiting capture", IsActive: true},
		{ID: 2, Code: string(PaymentCaptured), Description: "Captured, held in escrow", IsActive: true},
		{ID: 3, Code: string(PaymentReleased), Description: "Released to seller", IsActive: true},
		{ID: 4, Code: string(PaymentRefunded), Description: "Refunded to buyer", IsActive: true},
	}
}
