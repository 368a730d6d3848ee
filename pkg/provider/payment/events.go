package payment

// Event is a decoded provider webhook delivery. The set of implementations is
// closed: CheckoutCompleted, PaymentSucceeded and PaymentFailed.
type Event interface {
	// EventID is the provider's delivery id, used for de-duplication.
	EventID() string
	// Reference is the transaction code the event belongs to, when known.
	Reference() string
	// PaymentReference is the escrow payment id the link was issued for,
	// when the provider echoed it back.
	PaymentReference() string
	sealed()
}

// Kind names for logging and de-duplication records.
const (
	KindCheckoutCompleted = "checkout_completed"
	KindPaymentSucceeded  = "payment_succeeded"
	KindPaymentFailed     = "payment_failed"
)

// CheckoutCompleted reports a finished hosted checkout.
type CheckoutCompleted struct {
	ID              string
	LinkID          string
	PaymentIntentID string
	TransactionCode string
	PaymentRef      string
	Paid            bool
}

// PaymentSucceeded reports a captured payment intent.
type PaymentSucceeded struct {
	ID              string
	PaymentIntentID string
	TransactionCode string
	PaymentRef      string
}

// PaymentFailed reports a declined or errored payment attempt.
type PaymentFailed struct {
	ID              string
	PaymentIntentID string
	TransactionCode string
	PaymentRef      string
	Reason          string
}

func (e CheckoutCompleted) EventID() string          { return e.ID }
func (e CheckoutCompleted) Reference() string        { return e.TransactionCode }
func (e CheckoutCompleted) PaymentReference() string { return e.PaymentRef }
func (CheckoutCompleted) sealed()                    {}

func (e PaymentSucceeded) EventID() string          { return e.ID }
func (e PaymentSucceeded) Reference() string        { return e.TransactionCode }
func (e PaymentSucceeded) PaymentReference() string { return e.PaymentRef }
func (PaymentSucceeded) sealed()                    {}

func (e PaymentFailed) EventID() string          { return e.ID }
func (e PaymentFailed) Reference() string        { return e.TransactionCode }
func (e PaymentFailed) PaymentReference() string { return e.PaymentRef }
func (PaymentFailed) sealed()                    {}

// KindOf returns the kind name of e.
func KindOf(e Event) string {
	switch e.(type) {
	case CheckoutCompleted:
		return KindCheckoutCompleted
	case PaymentSucceeded:
		return KindPaymentSucceeded
	case PaymentFailed:
		return KindPaymentFailed
	}
	return ""
}
