package transaction

import "github.com/shopspring/decimal"

// CreateTransactionRequest opens a transaction for a seller's product.
type CreateTransactionRequest struct {
	SellerUsername   string `json:"sellerUsername" validate:"required"`
	BuyerUsername    string `json:"buyerUsername" validate:"required"`
	ProfileProductID string `json:"profileProductId" validate:"required,uuid"`
	Units            int64  `json:"units" validate:"required,gt=0"`
}

// CartItemRequest is one product of a cart checkout.
type CartItemRequest struct {
	ProfileProductID string `json:"profileProductId" validate:"required,uuid"`
	Units            int64  `json:"units" validate:"required,gt=0"`
}

// GenerateTransactionRequest checks out a cart that may span several sellers.
type GenerateTransactionRequest struct {
	BuyerUsername    string            `json:"buyerUsername" validate:"required"`
	ShoppingCartCode string            `json:"shoppingCartCode" validate:"required,max=64"`
	Items            []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateTransactionRequest is a counter-offer from one of the parties.
type UpdateTransactionRequest struct {
	TransactionCode string          `json:"transactionCode" validate:"required"`
	Username        string          `json:"username" validate:"required"`
	Units           int64           `json:"units" validate:"required,gt=0"`
	Amount          decimal.Decimal `json:"amount"`
}

// ConfirmTransactionRequest accepts the current terms.
type ConfirmTransactionRequest struct {
	TransactionCode string `json:"transactionCode" validate:"required"`
	Username        string `json:"username" validate:"required"`
}

// CompleteTransactionRequest closes a transaction with the buyer's unlock code.
type CompleteTransactionRequest struct {
	TransactionCode string `json:"transactionCode" validate:"required"`
	UnlockCode      string `json:"unlockCode" validate:"required"`
}

// ChargeRequest releases a completed transaction's funds to the seller.
type ChargeRequest struct {
	TransactionCode string `json:"transactionCode" validate:"required"`
}

// RefundRequest returns a captured payment, less commission, to the buyer.
type RefundRequest struct {
	TransactionCode string `json:"transactionCode" validate:"required"`
	Reason          string `json:"reason" validate:"max=500"`
}

// ListQuery selects the transactions of one user.
type ListQuery struct {
	Username string `query:"username" validate:"required"`
}
