// Package transaction exposes the transaction lifecycle and settlement
// endpoints.
package transaction

import (
	"fmt"

	"github.com/amirasaad/escrow/pkg/domain"
	settlementsvc "github.com/amirasaad/escrow/pkg/service/settlement"
	transactionsvc "github.com/amirasaad/escrow/pkg/service/transaction"
	"github.com/amirasaad/escrow/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the /transaction endpoints on router.
func Routes(
	router fiber.Router,
	txSvc *transactionsvc.Service,
	settlementSvc *settlementsvc.Service,
) {
	r := router.Group("/transaction")
	r.Post("/create-transaction", CreateTransaction(txSvc))
	r.Post("/generate-transaction", GenerateTransaction(txSvc))
	r.Put("/update-transaction", UpdateTransaction(txSvc))
	r.Post("/confirm-transaction", ConfirmTransaction(txSvc))
	r.Post("/complete-transaction", CompleteTransaction(txSvc))
	r.Get("/find-all-transaction", FindAllTransactions(txSvc))
	r.Post("/charge", Charge(settlementSvc))
	r.Post("/refund", Refund(settlementSvc))
	r.Get("/summary/:code", Summary(settlementSvc))
	r.Get("/:code", FindTransaction(txSvc))
}

// CreateTransaction opens a transaction and issues its payment link. When
// the link fails the transaction still exists and the ERROR envelope
// carries its code.
func CreateTransaction(svc *transactionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateTransactionRequest](c)
		if input == nil {
			return err
		}
		productID, err := uuid.Parse(input.ProfileProductID)
		if err != nil {
			return common.ErrorResponseJSON(c, domain.Validation("Invalid profile product id"), nil)
		}
		res, err := svc.Create(c.UserContext(), transactionsvc.CreateRequest{
			SellerUsername:   input.SellerUsername,
			BuyerUsername:    input.BuyerUsername,
			ProfileProductID: productID,
			Units:            input.Units,
		})
		if err != nil {
			return common.ErrorResponseJSON(c, err, res)
		}
		return common.SuccessResponseJSON(c, "Transaction created", res)
	}
}

// GenerateTransaction opens a fixed-price transaction for a cart and issues
// its payment link. Like CreateTransaction, a failed link still returns the
// transaction code.
func GenerateTransaction(svc *transactionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[GenerateTransactionRequest](c)
		if input == nil {
			return err
		}
		items := make([]transactionsvc.CartItem, 0, len(input.Items))
		for _, item := range input.Items {
			productID, err := uuid.Parse(item.ProfileProductID)
			if err != nil {
				return common.ErrorResponseJSON(c, domain.Validation("Invalid profile product id"), nil)
			}
			items = append(items, transactionsvc.CartItem{ProfileProductID: productID, Units: item.Units})
		}
		res, err := svc.GenerateFromCart(c.UserContext(), transactionsvc.CartRequest{
			BuyerUsername:    input.BuyerUsername,
			ShoppingCartCode: input.ShoppingCartCode,
			Items:            items,
		})
		if err != nil {
			return common.ErrorResponseJSON(c, err, res)
		}
		return common.SuccessResponseJSON(c, "Transaction created", res)
	}
}

// UpdateTransaction records a counter-offer.
func UpdateTransaction(svc *transactionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[UpdateTransactionRequest](c)
		if input == nil {
			return err
		}
		if err := svc.CounterOffer(c.UserContext(), transactionsvc.CounterOfferRequest{
			TransactionCode: input.TransactionCode,
			Username:        input.Username,
			Units:           input.Units,
			Amount:          input.Amount,
		}); err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		return common.SuccessResponseJSON(c, "Transaction updated", true)
	}
}

// ConfirmTransaction accepts the current terms for a party.
func ConfirmTransaction(svc *transactionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ConfirmTransactionRequest](c)
		if input == nil {
			return err
		}
		if err := svc.Confirm(c.UserContext(), input.TransactionCode, input.Username); err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		return common.SuccessResponseJSON(c, "Transaction confirmed", true)
	}
}

// CompleteTransaction closes a transaction. A failed transfer to a seller
// does not undo completion and is reported in the message.
func CompleteTransaction(svc *transactionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CompleteTransactionRequest](c)
		if input == nil {
			return err
		}
		res, err := svc.Complete(c.UserContext(), input.TransactionCode, input.UnlockCode)
		if err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		if res.TransferError != nil {
			return common.SuccessResponseJSON(c,
				fmt.Sprintf("Transaction completed; transfer to seller pending: %v", res.TransferError), true)
		}
		return common.SuccessResponseJSON(c, "Transaction completed", true)
	}
}

// FindAllTransactions lists the transactions of ?username=.
func FindAllTransactions(svc *transactionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := common.BindQuery[ListQuery](c)
		if q == nil {
			return err
		}
		list, err := svc.List(c.UserContext(), q.Username)
		if err != nil {
			return common.ErrorResponseJSON(c, err, nil)
		}
		return common.SuccessResponseJSON(c, "Transactions fetched", list)
	}
}

// FindTransaction returns one transaction. Unlock codes are never part of
// the response.
func FindTransaction(svc *transactionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := svc.Get(c.UserContext(), c.Params("code"))
		if err != nil {
			return common.ErrorResponseJSON(c, err, nil)
		}
		return common.SuccessResponseJSON(c, "Transaction fetched", detail)
	}
}

// Charge transfers a completed transaction's funds, less commission, to
// the sellers still owed.
func Charge(svc *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ChargeRequest](c)
		if input == nil {
			return err
		}
		if _, err := svc.ChargeToSeller(c.UserContext(), input.TransactionCode); err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		return common.SuccessResponseJSON(c, "Payment released to sellers", true)
	}
}

// Refund returns a captured payment, less commission, to the buyer.
func Refund(svc *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RefundRequest](c)
		if input == nil {
			return err
		}
		if _, err := svc.Refund(c.UserContext(), input.TransactionCode, input.Reason); err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		return common.SuccessResponseJSON(c, "Payment refunded to buyer", true)
	}
}

// Summary returns the commission breakdown of a transaction.
func Summary(svc *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.UserContext(), c.Params("code"))
		if err != nil {
			return common.ErrorResponseJSON(c, err, nil)
		}
		return common.SuccessResponseJSON(c, "Commission summary", sum)
	}
}
