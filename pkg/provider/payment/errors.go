package payment

import "errors"

var (
	// ErrSignature is returned when a webhook signature does not verify.
	ErrSignature = errors.New("webhook signature verification failed")
	// ErrMalformedEvent is returned when a signed delivery cannot be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
	// ErrLinkNotExpirable is returned by ExpirePaymentLink when the buyer
	// already completed the checkout.
	ErrLinkNotExpirable = errors.New("payment link already completed")
)
