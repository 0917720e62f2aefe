package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidateWebhookSignature(t *testing.T) {
	secret := "sk_test_abc123"
	body := []byte(`{"event":"charge.success","data":{"reference":"lms_x"}}`)

	assert.True(t, ValidateWebhookSignature(body, signBody(secret, body), secret))

	// wrong secret
	assert.False(t, ValidateWebhookSignature(body, signBody("sk_test_other", body), secret))

	// body altered after signing
	tampered := []byte(`{"event":"charge.success","data":{"reference":"lms_y"}}`)
	assert.False(t, ValidateWebhookSignature(tampered, signBody(secret, body), secret))

	// garbage and empty headers
	assert.False(t, ValidateWebhookSignature(body, "not-hex", secret))
	assert.False(t, ValidateWebhookSignature(body, "", secret))
}

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference()
	assert.True(t, strings.HasPrefix(ref, "lms_"))
	assert.NotEqual(t, ref, GenerateReference())
}
