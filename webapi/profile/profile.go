// Package profile exposes seller payout account onboarding.
package profile

import (
	settlementsvc "github.com/amirasaad/escrow/pkg/service/settlement"
	"github.com/amirasaad/escrow/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// PayoutAccountRequest links a connected payout account to a profile.
type PayoutAccountRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// Routes registers the /profiles endpoints on router.
func Routes(router fiber.Router, svc *settlementsvc.Service) {
	router.Post("/profiles/payout-account", LinkPayoutAccount(svc))
}

// LinkPayoutAccount creates the provider account sellers are paid into.
func LinkPayoutAccount(svc *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[PayoutAccountRequest](c)
		if input == nil {
			return err
		}
		if _, err := svc.LinkPayoutAccount(c.UserContext(), input.Username, input.Email); err != nil {
			return common.ErrorResponseJSON(c, err, false)
		}
		return common.SuccessResponseJSON(c, "Payout account linked", true)
	}
}
