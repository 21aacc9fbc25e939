// Package payment verifies payment proof before a reservation may
// confirm, and creates gateway orders for the signed-callback flow.
// Three interchangeable verifiers exist; PAYMENT_MODE picks one at
// startup and the engine never knows which.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/seatgrid/booking-backend/internal/config"
)

// ErrVerificationFailed is the base failure for any verifier; callers
// match on it without caring which mode rejected the payment.
var ErrVerificationFailed = errors.New("payment verification failed")

// VerifyRequest carries the caller's proof of payment.  PaymentID is
// used by the simulated and reference modes; OrderID plus Signature by
// the signed-callback mode.  AmountCents is the reservation's price
// snapshot, passed along for gateway-side amount checks.
type VerifyRequest struct {
	ReservationToken string
	PaymentID        string
	OrderID          string
	Signature        string
	AmountCents      uint32
}

// Verifier validates a payment proof and returns the canonical payment
// reference recorded on the booking.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (string, error)
}

// NewVerifier selects the verifier for the configured payment mode.
func NewVerifier(cfg config.Config) Verifier {
	switch cfg.PaymentMode {
	case config.PaymentModeReference:
		return &ReferenceVerifier{
			GatewayURL: cfg.PaymentGateway,
			Client:     &http.Client{Timeout: 10 * time.Second},
		}
	case config.PaymentModeSignedCallback:
		return &SignedCallbackVerifier{Secret: []byte(cfg.PaymentSecret)}
	default:
		return &SimulatedVerifier{}
	}
}

// paymentIDPrefixes are the reference shapes the known gateways emit.
var paymentIDPrefixes = []string{"PAY-", "pay_", "ch_"}

func hasKnownPrefix(id string) bool {
	for _, p := range paymentIDPrefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// SimulatedVerifier accepts any well-formed payment id.  Ids beginning
// with "PAY-FAIL" are rejected so test suites and demos can exercise
// the failure path deterministically.
type SimulatedVerifier struct{}

func (v *SimulatedVerifier) Verify(_ context.Context, req VerifyRequest) (string, error) {
	if req.PaymentID == "" {
		return "", fmt.Errorf("%w: payment_id is required", ErrVerificationFailed)
	}
	if !hasKnownPrefix(req.PaymentID) {
		return "", fmt.Errorf("%w: unrecognized payment id format", ErrVerificationFailed)
	}
	if strings.HasPrefix(req.PaymentID, "PAY-FAIL") {
		return "", fmt.Errorf("%w: payment declined", ErrVerificationFailed)
	}
	return req.PaymentID, nil
}

// gatewayStatus is the subset of the gateway verify response we act on.
type gatewayStatus struct {
	Captured bool `json:"captured"`
	Consumed bool `json:"consumed"`
}

// ReferenceVerifier asks the upstream gateway whether the payment id
// was captured and not already consumed by an earlier booking.
type ReferenceVerifier struct {
	GatewayURL string
	Client     *http.Client
}

func (v *ReferenceVerifier) Verify(ctx context.Context, req VerifyRequest) (string, error) {
	if req.PaymentID == "" {
		return "", fmt.Errorf("%w: payment_id is required", ErrVerificationFailed)
	}
	if !hasKnownPrefix(req.PaymentID) {
		return "", fmt.Errorf("%w: unrecognized payment id format", ErrVerificationFailed)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"payment_id":   req.PaymentID,
		"amount_cents": req.AmountCents,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.GatewayURL, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: gateway returned status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var status gatewayStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if !status.Captured {
		return "", fmt.Errorf("%w: payment not captured", ErrVerificationFailed)
	}
	if status.Consumed {
		return "", fmt.Errorf("%w: payment already consumed", ErrVerificationFailed)
	}
	return req.PaymentID, nil
}

// SignedCallbackVerifier validates an HMAC-SHA256 signature the gateway
// computed over "orderId|paymentId" with the shared secret.  No network
// round-trip is needed; possession of a valid signature is the proof.
type SignedCallbackVerifier struct {
	Secret []byte
}

// Sign computes the hex signature for an order/payment pair.  Exposed
// for tests and for tooling that emulates the gateway callback.
func (v *SignedCallbackVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *SignedCallbackVerifier) Verify(_ context.Context, req VerifyRequest) (string, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return "", fmt.Errorf("%w: order_id, payment_id and signature are required", ErrVerificationFailed)
	}
	want := v.Sign(req.OrderID, req.PaymentID)
	// hmac.Equal keeps the comparison constant-time.
	if !hmac.Equal([]byte(want), []byte(req.Signature)) {
		return "", fmt.Errorf("%w: signature mismatch", ErrVerificationFailed)
	}
	return req.PaymentID, nil
}
