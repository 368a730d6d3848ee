package payment

import "github.com/amirasaad/escrow/pkg/domain"

// Business outcomes of the payment flow.
var (
	ErrNotFound             = domain.NotFound("payment not found for the given transaction code")
	ErrAlreadyPaid          = domain.Conflict("the transaction has already been paid")
	ErrAlreadyProcessed     = domain.Conflict("payment already processed for this transaction")
	ErrNotCompleted         = domain.Conflict("the payment has not been completed")
	ErrNotCaptured          = domain.Conflict("payment is not in captured state")
	ErrAlreadyTransferred   = domain.Conflict("payment has already been transferred to the seller")
	ErrMissingPaymentIntent = domain.Conflict("no provider payment intent recorded for refund")
	ErrNotReleasable        = domain.Conflict("transaction must be completed before paying the seller")
	ErrNoPayoutAccount      = domain.Validation("seller has no payout account configured")
	ErrPayoutAccountExists  = domain.Validation("a payout account is already linked to this profile")
	ErrProfileNotFound      = domain.NotFound("profile not found")
)
