package paymentRoutes

import (
	paymentControllers "lms/controllers/payment"
	"lms/middleware"
	paymentValidators "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes wires the checkout and reconciliation routes. The
// webhook carries no JWT: the gateway authenticates with its signature,
// not a bearer token.
func SetupPaymentRoutes(app *fiber.App, ctrl *paymentControllers.Controller) {
	payGroup := app.Group("/payment")

	payGroup.Post("/initialize", middleware.JWTMiddleware, paymentValidators.Initialize(), ctrl.Initialize)
	payGroup.Post("/section/initialize", middleware.JWTMiddleware, paymentValidators.SectionInitialize(), ctrl.InitializeSection)
	payGroup.Post("/verify", middleware.JWTMiddleware, paymentValidators.Verify(), ctrl.Verify)
	payGroup.Post("/section/verify", middleware.JWTMiddleware, paymentValidators.Verify(), ctrl.VerifySection)

	payGroup.Post("/webhook", ctrl.Webhook)
}
