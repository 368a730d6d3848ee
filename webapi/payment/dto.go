package payment

// GenerateRequest asks for the payment link of a transaction.
type GenerateRequest struct {
	TransactionCode string `json:"transactionCode" validate:"required"`
}

// SuccessQuery is the checkout success redirect.
type SuccessQuery struct {
	Transaction string `query:"transaction" validate:"required"`
}

// ResendUnlockCodeRequest asks for the buyer's unlock code to be sent again.
type ResendUnlockCodeRequest struct {
	TransactionCode string `json:"transactionCode" validate:"required"`
}
