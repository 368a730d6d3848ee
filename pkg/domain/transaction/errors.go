package transaction

import "github.com/amirasaad/escrow/pkg/domain"

// Business outcomes of the transaction lifecycle.
var (
	ErrNotFound             = domain.NotFound("transaction not found")
	ErrSellerNotFound       = domain.Validation("seller username does not exist")
	ErrBuyerNotFound        = domain.Validation("buyer username does not exist")
	ErrSameParty            = domain.Validation("buyer and seller must be different users")
	ErrProductNotFound      = domain.Validation("profile product does not exist")
	ErrProductNotOwned      = domain.Validation("profile product does not belong to the seller")
	ErrPriceNotFound        = domain.Validation("profile product has no price")
	ErrInsufficientUnits    = domain.Validation("insufficient units in profile product")
	ErrInvalidTerms         = domain.Validation("units and amount must be positive")
	ErrNotAParty            = domain.Unauthorized("user is not a party of this transaction")
	ErrAlreadyResponded     = domain.Validation("you have already responded to this offer")
	ErrNotNegotiable        = domain.Conflict("transaction is no longer open for negotiation")
	ErrAlreadyConfirmed     = domain.Conflict("transaction already confirmed")
	ErrAlreadyCompleted     = domain.Conflict("transaction already completed")
	ErrNotPendingCompletion = domain.Conflict("transaction is not pending completion")
	ErrPaymentNotFound      = domain.NotFound("no payment information found for the transaction")
	ErrPaymentClosed        = domain.Conflict("payment is not awaiting release")
	ErrInvalidUnlockCode    = domain.Validation("transaction unlock code is not correct")
	ErrPaymentCaptured      = domain.Conflict("payment already captured for this transaction")
	ErrEmptyCart            = domain.Validation("shopping cart has no items")
	ErrFixedTerms           = domain.Conflict("cart transactions cannot be counter-offered")
)
