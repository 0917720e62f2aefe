package paymentController

import (
	"encoding/json"
	"errors"
	"log"

	"lms/ledger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/payment"
	"lms/pricing"
	paymentValidator "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller handles checkout initialization and both reconciliation
// channels (webhook push and client-triggered verify). The gateway is
// injected so tests can substitute a fake.
type Controller struct {
	DB            *gorm.DB
	Gateway       payment.Gateway
	Ledger        *ledger.Ledger
	WebhookSecret string
	AppURL        string
}

func NewController(db *gorm.DB, gateway payment.Gateway, l *ledger.Ledger, webhookSecret, appURL string) *Controller {
	return &Controller{DB: db, Gateway: gateway, Ledger: l, WebhookSecret: webhookSecret, AppURL: appURL}
}

// Initialize starts a course (or full-access) checkout. Ledger state is
// only touched after the gateway accepts the transaction, so a timed-out
// initialize leaves nothing behind.
func (ctrl *Controller) Initialize(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := ctrl.DB.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedInitialize").(*paymentValidator.InitializeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course courseModels.Course
	if err := ctrl.DB.Preload("Sections", "is_deleted = ?", false).
		Where("id = ? AND is_deleted = ? AND is_active = ?", reqData.CourseID, false, true).
		First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or inactive!", nil)
	}

	// the amount quoted here is what reconciliation will trust later
	if !pricing.ValidateAmount(&course, reqData.Amount, reqData.IncludeAllSections) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Amount does not match the course price!", nil)
	}

	existing, err := ctrl.Ledger.Find(userID, course.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check enrollment!", nil)
	}
	if existing != nil && existing.PaymentStatus == courseModels.PaymentStatusCompleted {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
	}

	reference := payment.GenerateReference()

	var paidSectionIDs []uint
	if reqData.IncludeAllSections {
		for _, s := range pricing.FullBreakdown(&course).PaidSections {
			paidSectionIDs = append(paidSectionIDs, s.SectionID)
		}
	}
	meta := payment.CourseMetadata(course.ID, userID, reqData.IncludeAllSections, paidSectionIDs)

	result, err := ctrl.Gateway.Initialize(c.UserContext(), reqData.Amount, user.Email, reference,
		ctrl.AppURL+"/payment/callback", meta)
	if err != nil {
		log.Printf("payment: initialize failed for course=%d user=%d: %v", course.ID, userID, err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway unavailable, try again later!", nil)
	}

	enrollment, err := ctrl.Ledger.BeginPaidEnrollment(userID, course.ID, reference)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyEnrolled) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record pending enrollment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment initialized!", fiber.Map{
		"authorization_url": result.AuthorizationURL,
		"reference":         reference,
		"courseId":          course.ID,
		"enrollmentId":      enrollment.ID,
	})
}

// InitializeSection starts a single-section checkout for an already
// enrolled learner. No ledger mutation happens here at all: the section is
// granted only on a reconciled success outcome.
func (ctrl *Controller) InitializeSection(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := ctrl.DB.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedSectionInitialize").(*paymentValidator.SectionInitializeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var section courseModels.Section
	if err := ctrl.DB.Where("id = ? AND course_id = ? AND is_deleted = ?",
		reqData.SectionID, reqData.CourseID, false).First(&section).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Section not found!", nil)
	}
	if !section.IsPaid {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Section does not require purchase!", nil)
	}
	if pricing.SectionPrice(&section) != reqData.Amount {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Amount does not match the section price!", nil)
	}

	enrollment, err := ctrl.Ledger.Find(userID, reqData.CourseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check enrollment!", nil)
	}
	if enrollment == nil || enrollment.PaymentStatus != courseModels.PaymentStatusCompleted {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Not enrolled in this course!", nil)
	}
	if enrollment.HasPaidSection(section.ID) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Section already purchased!", nil)
	}

	reference := payment.GenerateReference()
	meta := payment.SectionMetadata(section.ID, reqData.CourseID, userID, enrollment.ID)

	result, err := ctrl.Gateway.Initialize(c.UserContext(), reqData.Amount, user.Email, reference,
		ctrl.AppURL+"/payment/callback?type=section", meta)
	if err != nil {
		log.Printf("payment: section initialize failed section=%d user=%d: %v", section.ID, userID, err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway unavailable, try again later!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment initialized!", fiber.Map{
		"authorization_url": result.AuthorizationURL,
		"reference":         reference,
		"courseId":          reqData.CourseID,
	})
}

// Verify is the client-triggered reconciliation channel: the learner's
// browser returns from the gateway carrying the reference and we ask the
// gateway for the authoritative outcome. Safe to repeat; a timed-out
// verify leaves the enrollment PENDING for a later retry.
func (ctrl *Controller) Verify(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedVerify").(*paymentValidator.VerifyRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctrl.Gateway.Verify(c.UserContext(), reqData.Reference)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownMetadata) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unrecognized transaction metadata!", nil)
		}
		log.Printf("payment: verify failed reference=%s: %v", reqData.Reference, err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway unavailable, try again later!", nil)
	}

	enrollment, err := ctrl.Ledger.ApplyPaymentOutcome(reqData.Reference, result.Succeeded, result.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrOutcomeUnmatched):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found for this payment!", fiber.Map{
				"success": false,
			})
		case errors.Is(err, ledger.ErrStaleOutcome):
			// a contradictory outcome is never applied; report current state
			return ctrl.verifyResult(c, enrollment)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to apply payment outcome!", nil)
		}
	}

	return ctrl.verifyResult(c, enrollment)
}

func (ctrl *Controller) verifyResult(c *fiber.Ctx, enrollment *courseModels.Enrollment) error {
	if enrollment == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment not successful.", fiber.Map{
			"success": false,
		})
	}
	succeeded := enrollment.PaymentStatus == courseModels.PaymentStatusCompleted
	message := "Payment not successful."
	if succeeded {
		message = "Payment verified!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"success":      succeeded,
		"courseId":     enrollment.CourseID,
		"enrollmentId": enrollment.ID,
	})
}

// VerifySection reconciles a single-section transaction on return from the
// gateway
func (ctrl *Controller) VerifySection(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedVerify").(*paymentValidator.VerifyRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctrl.Gateway.Verify(c.UserContext(), reqData.Reference)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownMetadata) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unrecognized transaction metadata!", nil)
		}
		log.Printf("payment: section verify failed reference=%s: %v", reqData.Reference, err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway unavailable, try again later!", nil)
	}

	if !result.Metadata.IsSectionPurchase() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Not a section transaction!", nil)
	}

	enrollment, err := ctrl.Ledger.ApplyPaymentOutcome(reqData.Reference, result.Succeeded, result.Metadata)
	if err != nil {
		if errors.Is(err, ledger.ErrOutcomeUnmatched) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found for this payment!", fiber.Map{
				"success": false,
			})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to apply payment outcome!", nil)
	}
	if enrollment == nil {
		// a failed outcome whose enrollment id matched nothing: there is no
		// row to report, only the verdict
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Section payment processed.", fiber.Map{
			"success": false,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Section payment processed.", fiber.Map{
		"success":  result.Succeeded,
		"courseId": enrollment.CourseID,
	})
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
		Metadata  json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// Webhook is the gateway-push reconciliation channel. The HMAC signature
// is checked over the raw body before anything is parsed; after that the
// event is acknowledged with 200 no matter how reconciliation goes, since
// the gateway retries non-2xx deliveries forever.
func (ctrl *Controller) Webhook(c *fiber.Ctx) error {
	rawBody := c.Body()
	signature := c.Get("x-paystack-signature")

	if !payment.ValidateWebhookSignature(rawBody, signature, ctrl.WebhookSecret) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid signature!", nil)
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Malformed webhook payload!", nil)
	}

	var succeeded bool
	switch event.Event {
	case "charge.success":
		if event.Data.Status != "success" {
			// a success event carrying any other status is not a verdict;
			// the gateway will follow up with the real one
			return middleware.JsonResponse(c, fiber.StatusOK, true, "Event ignored.", fiber.Map{"received": true})
		}
		succeeded = true
	case "charge.failed":
		succeeded = false
	default:
		// not a charge outcome; acknowledge and ignore
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Event ignored.", fiber.Map{"received": true})
	}

	meta, err := payment.DecodeMetadata(event.Data.Metadata)
	if err != nil {
		log.Printf("payment: webhook metadata rejected reference=%s: %v", event.Data.Reference, err)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unrecognized transaction metadata!", nil)
	}

	if _, err := ctrl.Ledger.ApplyPaymentOutcome(event.Data.Reference, succeeded, meta); err != nil {
		// unmatched and stale outcomes are logged inside the ledger with
		// full metadata for the support trail; the gateway still gets a 200
		if !errors.Is(err, ledger.ErrOutcomeUnmatched) && !errors.Is(err, ledger.ErrStaleOutcome) {
			log.Printf("payment: webhook apply failed reference=%s: %v", event.Data.Reference, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Webhook processed.", fiber.Map{"received": true})
}
