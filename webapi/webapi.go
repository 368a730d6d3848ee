// Package webapi wires the escrow HTTP surface:
// - transaction: lifecycle and settlement endpoints
// - payment: payment links, capture and provider webhooks
// - profile: seller payout onboarding
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/escrow/infra/initializer"
	"github.com/amirasaad/escrow/webapi/common"
	paymentweb "github.com/amirasaad/escrow/webapi/payment"
	profileweb "github.com/amirasaad/escrow/webapi/profile"
	transactionweb "github.com/amirasaad/escrow/webapi/transaction"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prefix is the root of the escrow API.
const Prefix = "/transactions"

// SetupApp Initialize Fiber with custom configuration
func SetupApp(deps *initializer.Deps) *fiber.App {
	cfg := deps.Config
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: common.ErrorHandler,
	})

	if cfg.RateLimit != nil && cfg.RateLimit.MaxRequests > 0 {
		// Uses X-Forwarded-For, then X-Real-IP, then the peer address.
		fiberApp.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.MaxRequests,
			Expiration: cfg.RateLimit.Window,
			KeyGenerator: func(c *fiber.Ctx) string {
				if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
					first, _, _ := strings.Cut(forwardedFor, ",")
					return strings.TrimSpace(first)
				}
				if realIP := c.Get("X-Real-IP"); realIP != "" {
					return realIP
				}
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(common.Response{
					Status:  common.StatusError,
					Message: "Too Many Requests",
					Error:   errors.New("rate limit exceeded").Error(),
				})
			},
		}))
	}
	fiberApp.Use(recover.New())
	if cfg.Env != "test" {
		fiberApp.Use(logger.New())
	}

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Escrow API is running! 🚀")
	})

	if deps.Gatherer != nil && cfg.Metrics != nil && cfg.Metrics.Enabled {
		fiberApp.Get(cfg.Metrics.Path, adaptor.HTTPHandler(
			promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}),
		))
	}

	api := fiberApp.Group(Prefix)
	transactionweb.Routes(api, deps.Transactions, deps.Settlement)
	paymentweb.Routes(api, deps.Payments, deps.Provider)
	profileweb.Routes(api, deps.Settlement)

	// Unknown routes
	fiberApp.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})
	return fiberApp
}
