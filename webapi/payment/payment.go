// Package payment exposes payment link, capture and webhook endpoints.
package payment

import (
	"errors"

	provider "github.com/amirasaad/escrow/pkg/provider/payment"
	paymentsvc "github.com/amirasaad/escrow/pkg/service/payment"
	"github.com/amirasaad/escrow/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// Routes registers the /payment endpoints on router.
func Routes(
	router fiber.Router,
	svc *paymentsvc.Service,
	paymentProvider provider.Provider,
) {
	r := router.Group("/payment")
	r.Post("/generate", Generate(svc))
	r.Get("/success", Success(svc))
	r.Get("/status/:transactionCode", Status(svc))
	r.Post("/resend-unlock-code", ResendUnlockCode(svc))
	r.Post("/webhook", WebhookHandler(svc, paymentProvider))
}

// Generate returns the transaction's payment link, issuing one if needed.
func Generate(svc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[GenerateRequest](c)
		if input == nil {
			return err
		}
		link, err := svc.Generate(c.UserContext(), input.TransactionCode)
		if err != nil {
			return common.ErrorResponseJSON(c, err, nil)
		}
		return common.SuccessResponseJSON(c, "Payment link generated", link)
	}
}

// Success is the checkout success redirect; it captures the payment by
// polling the provider.
func Success(svc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := common.BindQuery[SuccessQuery](c)
		if q == nil {
			return err
		}
		if err := svc.Confirm(c.UserContext(), q.Transaction); err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		return common.SuccessResponseJSON(c, "Payment confirmed", true)
	}
}

// ResendUnlockCode sends the unlock code to the buyer's notification
// channel again. The response never carries the code.
func ResendUnlockCode(svc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ResendUnlockCodeRequest](c)
		if input == nil {
			return err
		}
		if err := svc.ResendUnlockCode(c.UserContext(), input.TransactionCode); err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		return common.SuccessResponseJSON(c, "Unlock code sent to buyer", true)
	}
}

// Status returns the active payment of a transaction.
func Status(svc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.Status(c.UserContext(), c.Params("transactionCode"))
		if err != nil {
			return common.ErrorResponseJSON(c, err, nil)
		}
		return common.SuccessResponseJSON(c, "Payment status", view)
	}
}

// WebhookHandler verifies and applies provider deliveries. Failures are
// answered outside the envelope with a non-2xx status so the provider
// redelivers.
func WebhookHandler(svc *paymentsvc.Service, paymentProvider provider.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get(SignatureHeader)
		if signature == "" {
			return c.Status(fiber.StatusBadRequest).SendString("missing " + SignatureHeader + " header")
		}
		evt, err := paymentProvider.ParseWebhook(c.Body(), signature)
		if err != nil {
			status := fiber.StatusInternalServerError
			if errors.Is(err, provider.ErrSignature) || errors.Is(err, provider.ErrMalformedEvent) {
				status = fiber.StatusBadRequest
			}
			log.Warnf("Rejected webhook delivery: %v", err)
			return c.Status(status).SendString(err.Error())
		}
		if err := svc.HandleEvent(c.UserContext(), evt); err != nil {
			log.Errorf("Failed to apply webhook event: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		return c.JSON(fiber.Map{"received": true})
	}
}
