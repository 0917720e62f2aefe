package paymentValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

type InitializeRequest struct {
	CourseID           uint  `json:"courseId"`
	Amount             int64 `json:"amount"`
	IncludeAllSections bool  `json:"includeAllSections"`
}

type SectionInitializeRequest struct {
	SectionID uint  `json:"sectionId"`
	CourseID  uint  `json:"courseId"`
	Amount    int64 `json:"amount"`
}

type VerifyRequest struct {
	Reference string `json:"reference"`
}

// Initialize validates a course checkout request
func Initialize() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(InitializeRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CourseID == 0 {
			errors["courseId"] = "Course ID is required!"
		}
		if reqData.Amount <= 0 {
			errors["amount"] = "Amount must be greater than 0!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedInitialize", reqData)
		return c.Next()
	}
}

// SectionInitialize validates a single-section checkout request
func SectionInitialize() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SectionInitializeRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.SectionID == 0 {
			errors["sectionId"] = "Section ID is required!"
		}
		if reqData.CourseID == 0 {
			errors["courseId"] = "Course ID is required!"
		}
		if reqData.Amount <= 0 {
			errors["amount"] = "Amount must be greater than 0!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSectionInitialize", reqData)
		return c.Next()
	}
}

// Verify validates a payment verification request
func Verify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(VerifyRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Reference = strings.TrimSpace(reqData.Reference)

		if reqData.Reference == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"reference": "Payment reference is required!",
			})
		}

		c.Locals("validatedVerify", reqData)
		return c.Next()
	}
}
