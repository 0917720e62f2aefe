// Package payment holds the outbound Paystack gateway client, webhook
// signature validation, and the typed transaction metadata that correlates
// gateway outcomes back to enrollments.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ErrGatewayUnavailable wraps network failures and non-2xx gateway
// responses. Callers must not create or mutate ledger state when they see
// it.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// InitResult is returned by Initialize; the caller redirects the learner
// to AuthorizationURL
type InitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the gateway's current authoritative view of a transaction
type VerifyResult struct {
	Succeeded bool
	Amount    int64
	Metadata  Metadata
}

// Gateway is the outbound payment-processor contract. Controllers take it
// as a dependency so tests can substitute a fake.
type Gateway interface {
	Initialize(ctx context.Context, amount int64, email, reference, callbackURL string, meta Metadata) (*InitResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// PaystackClient talks to the Paystack REST API
type PaystackClient struct {
	http *resty.Client
}

// NewPaystackClient builds a client bound by timeout; secretKey
// authenticates every call
func NewPaystackClient(baseURL, secretKey string, timeout time.Duration) *PaystackClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &PaystackClient{http: client}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status   string          `json:"status"`
	Amount   int64           `json:"amount"`
	Metadata json.RawMessage `json:"metadata"`
}

// Initialize starts a transaction and returns the redirect target. The
// reference is generated locally, never trusted from the gateway.
func (p *PaystackClient) Initialize(ctx context.Context, amount int64, email, reference, callbackURL string, meta Metadata) (*InitResult, error) {
	body := map[string]interface{}{
		"amount":       amount,
		"email":        email,
		"reference":    reference,
		"callback_url": callbackURL,
		"metadata":     meta,
	}

	var envelope paystackEnvelope
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&envelope).
		Post("/transaction/initialize")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: initialize returned %s", ErrGatewayUnavailable, resp.Status())
	}
	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, envelope.Message)
	}

	var data paystackInitData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed initialize response: %v", ErrGatewayUnavailable, err)
	}

	return &InitResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        reference,
	}, nil
}

// Verify fetches the gateway's current view of a transaction. Idempotent,
// safe to call repeatedly.
func (p *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var envelope paystackEnvelope
	resp, err := p.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get("/transaction/verify/" + reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: verify returned %s", ErrGatewayUnavailable, resp.Status())
	}
	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, envelope.Message)
	}

	var data paystackVerifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed verify response: %v", ErrGatewayUnavailable, err)
	}

	meta, err := DecodeMetadata(data.Metadata)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		Succeeded: data.Status == "success",
		Amount:    data.Amount,
		Metadata:  meta,
	}, nil
}

// GenerateReference mints a globally unique transaction reference. The
// reference is the correlation key for every subsequent reconciliation
// step.
func GenerateReference() string {
	return "lms_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidateWebhookSignature checks the HMAC-SHA512 hex signature Paystack
// sends over the raw request body. Must be called before the body is
// parsed or trusted.
func ValidateWebhookSignature(rawBody []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
