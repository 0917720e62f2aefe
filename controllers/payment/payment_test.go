package paymentController

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/database"
	"lms/ledger"
	courseModels "lms/models/course"
	"lms/payment"
	paymentValidator "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const testSecret = "sk_test_webhook"

type fakeGateway struct {
	verifySucceeded bool
	verifyMeta      payment.Metadata
	verifyErr       error
}

func (g *fakeGateway) Initialize(ctx context.Context, amount int64, email, reference, callbackURL string, meta payment.Metadata) (*payment.InitResult, error) {
	return &payment.InitResult{
		AuthorizationURL: "https://checkout.example.com/" + reference,
		Reference:        reference,
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*payment.VerifyResult, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &payment.VerifyResult{Succeeded: g.verifySucceeded, Metadata: g.verifyMeta}, nil
}

func setup(t *testing.T) (*gorm.DB, *ledger.Ledger, *fakeGateway, *fiber.App) {
	db, err := database.OpenTestDb()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	l := ledger.NewLedger(db)
	gateway := &fakeGateway{}
	ctrl := NewController(db, gateway, l, testSecret, "http://localhost:3000")

	app := fiber.New()
	app.Post("/payment/webhook", ctrl.Webhook)
	app.Post("/payment/verify", paymentValidator.Verify(), ctrl.Verify)
	app.Post("/payment/section/verify", paymentValidator.Verify(), ctrl.VerifySection)
	return db, l, gateway, app
}

func pendingEnrollment(t *testing.T, db *gorm.DB, l *ledger.Ledger, reference string) courseModels.Course {
	course := courseModels.Course{Title: "Paid Course", IsPaid: true, Price: 50000, IsActive: true}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("pendingEnrollment() failed: %v", err)
	}
	if _, err := l.BeginPaidEnrollment(1, course.ID, reference); err != nil {
		t.Fatalf("pendingEnrollment() failed: %v", err)
	}
	return course
}

func webhookBody(t *testing.T, event, reference, status string, meta payment.Metadata) []byte {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("webhookBody() failed: %v", err)
	}
	return []byte(fmt.Sprintf(`{"event":%q,"data":{"reference":%q,"status":%q,"metadata":%s}}`,
		event, reference, status, metaJSON))
}

func signedRequest(body []byte, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	req.Header.Set("x-paystack-signature", hex.EncodeToString(mac.Sum(nil)))
	return req
}

func verifyRequest(reference string) *http.Request {
	body := []byte(fmt.Sprintf(`{"reference":%q}`, reference))
	req := httptest.NewRequest(http.MethodPost, "/payment/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sectionVerifyRequest(reference string) *http.Request {
	body := []byte(fmt.Sprintf(`{"reference":%q}`, reference))
	req := httptest.NewRequest(http.MethodPost, "/payment/section/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("decodeBody() failed: %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("decodeBody() failed: %v", err)
	}
	return parsed
}

func TestWebhookChargeSuccessCompletesEnrollment(t *testing.T) {
	db, l, _, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_hook")

	meta := payment.CourseMetadata(course.ID, 1, true, []uint{11, 12})
	body := webhookBody(t, "charge.success", "lms_hook", "success", meta)

	resp, err := app.Test(signedRequest(body, testSecret))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	enrollment, err := l.FindByReference("lms_hook")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusCompleted, enrollment.PaymentStatus)
	assert.True(t, enrollment.HasPaidSection(11))
	assert.True(t, enrollment.HasPaidSection(12))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	db, l, _, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_forged")

	meta := payment.CourseMetadata(course.ID, 1, false, nil)
	body := webhookBody(t, "charge.success", "lms_forged", "success", meta)

	resp, err := app.Test(signedRequest(body, "sk_wrong_secret"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the forged event must not have touched the ledger
	enrollment, err := l.FindByReference("lms_forged")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusPending, enrollment.PaymentStatus)
}

func TestWebhookDuplicateDeliveryIsAcknowledged(t *testing.T) {
	db, l, _, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_dup")

	meta := payment.CourseMetadata(course.ID, 1, false, nil)
	body := webhookBody(t, "charge.success", "lms_dup", "success", meta)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(signedRequest(body, testSecret))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	enrollment, err := l.FindByReference("lms_dup")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusCompleted, enrollment.PaymentStatus)
}

func TestWebhookIgnoresUnrelatedEvents(t *testing.T) {
	db, l, _, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_other")

	meta := payment.CourseMetadata(course.ID, 1, false, nil)
	body := webhookBody(t, "transfer.success", "lms_other", "success", meta)

	resp, err := app.Test(signedRequest(body, testSecret))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	enrollment, err := l.FindByReference("lms_other")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusPending, enrollment.PaymentStatus)
}

func TestWebhookUnmatchedOutcomeStillAcknowledged(t *testing.T) {
	_, _, _, app := setup(t)

	meta := payment.CourseMetadata(404, 7, false, nil)
	body := webhookBody(t, "charge.success", "lms_ghost", "success", meta)

	// the gateway retries non-2xx forever, so even a miss gets a 200
	resp, err := app.Test(signedRequest(body, testSecret))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyCompletesEnrollment(t *testing.T) {
	db, l, gateway, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_verify")

	gateway.verifySucceeded = true
	gateway.verifyMeta = payment.CourseMetadata(course.ID, 1, false, nil)

	resp, err := app.Test(verifyRequest("lms_verify"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeBody(t, resp)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, true, data["success"])

	enrollment, err := l.FindByReference("lms_verify")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusCompleted, enrollment.PaymentStatus)
}

func TestVerifyReportsFailure(t *testing.T) {
	db, l, gateway, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_declined")

	gateway.verifySucceeded = false
	gateway.verifyMeta = payment.CourseMetadata(course.ID, 1, false, nil)

	resp, err := app.Test(verifyRequest("lms_declined"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeBody(t, resp)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, false, data["success"])

	enrollment, err := l.FindByReference("lms_declined")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusFailed, enrollment.PaymentStatus)
}

func TestVerifyAfterWebhookIsIdempotent(t *testing.T) {
	db, l, gateway, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_both")

	meta := payment.CourseMetadata(course.ID, 1, false, nil)
	body := webhookBody(t, "charge.success", "lms_both", "success", meta)
	resp, err := app.Test(signedRequest(body, testSecret))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the learner's browser comes back and triggers verify for the same
	// transaction
	gateway.verifySucceeded = true
	gateway.verifyMeta = meta

	resp, err = app.Test(verifyRequest("lms_both"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeBody(t, resp)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, true, data["success"])

	enrollment, err := l.FindByReference("lms_both")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusCompleted, enrollment.PaymentStatus)
}

func TestWebhookSuccessEventWithOtherStatusIgnored(t *testing.T) {
	db, l, _, app := setup(t)
	course := pendingEnrollment(t, db, l, "lms_abandoned")

	// a charge.success envelope whose inner status is not "success" carries
	// no verdict and must not fail the enrollment
	meta := payment.CourseMetadata(course.ID, 1, false, nil)
	body := webhookBody(t, "charge.success", "lms_abandoned", "abandoned", meta)

	resp, err := app.Test(signedRequest(body, testSecret))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	enrollment, err := l.FindByReference("lms_abandoned")
	assert.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusPending, enrollment.PaymentStatus)
}

func completedEnrollment(t *testing.T, db *gorm.DB, l *ledger.Ledger, reference string) (courseModels.Course, *courseModels.Enrollment) {
	course := pendingEnrollment(t, db, l, reference)
	enrollment, err := l.ApplyPaymentOutcome(reference, true, payment.CourseMetadata(course.ID, 1, false, nil))
	if err != nil {
		t.Fatalf("completedEnrollment() failed: %v", err)
	}
	return course, enrollment
}

func TestSectionVerifyUnlocksSection(t *testing.T) {
	db, l, gateway, app := setup(t)
	course, enrollment := completedEnrollment(t, db, l, "lms_owner")

	gateway.verifySucceeded = true
	gateway.verifyMeta = payment.SectionMetadata(11, course.ID, 1, enrollment.ID)

	resp, err := app.Test(sectionVerifyRequest("lms_sec_ok"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeBody(t, resp)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, true, data["success"])
	assert.Equal(t, float64(course.ID), data["courseId"])

	updated, err := l.FindByID(enrollment.ID)
	assert.NoError(t, err)
	assert.True(t, updated.HasPaidSection(11))
}

func TestSectionVerifyFailedOutcomeWithStaleEnrollmentID(t *testing.T) {
	_, _, gateway, app := setup(t)

	// a failed section transaction pointing at an enrollment id that matches
	// nothing: there is no row to report, only the verdict
	gateway.verifySucceeded = false
	gateway.verifyMeta = payment.SectionMetadata(7, 4, 9, 9999)

	resp, err := app.Test(sectionVerifyRequest("lms_sec_ghost"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeBody(t, resp)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, false, data["success"])
}

func TestSectionVerifyRejectsCourseTransaction(t *testing.T) {
	db, l, gateway, app := setup(t)
	course, _ := completedEnrollment(t, db, l, "lms_mixed")

	gateway.verifySucceeded = true
	gateway.verifyMeta = payment.CourseMetadata(course.ID, 1, false, nil)

	resp, err := app.Test(sectionVerifyRequest("lms_mixed"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyMissingReference(t *testing.T) {
	_, _, _, app := setup(t)

	resp, err := app.Test(verifyRequest(""))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

