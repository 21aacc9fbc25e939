package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/booking-backend/internal/config"
)

func TestNewVerifierSelectsMode(t *testing.T) {
	assert.IsType(t, &SimulatedVerifier{}, NewVerifier(config.Config{PaymentMode: config.PaymentModeSimulated}))
	assert.IsType(t, &ReferenceVerifier{}, NewVerifier(config.Config{PaymentMode: config.PaymentModeReference, PaymentGateway: "http://gw"}))
	assert.IsType(t, &SignedCallbackVerifier{}, NewVerifier(config.Config{PaymentMode: config.PaymentModeSignedCallback, PaymentSecret: "s"}))
}

func TestSimulatedVerifier(t *testing.T) {
	v := &SimulatedVerifier{}
	ctx := context.Background()

	ref, err := v.Verify(ctx, VerifyRequest{PaymentID: "PAY-abc123"})
	require.NoError(t, err)
	assert.Equal(t, "PAY-abc123", ref)

	for _, id := range []string{"pay_abc", "ch_abc"} {
		ref, err := v.Verify(ctx, VerifyRequest{PaymentID: id})
		require.NoError(t, err)
		assert.Equal(t, id, ref)
	}

	_, err = v.Verify(ctx, VerifyRequest{PaymentID: ""})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	_, err = v.Verify(ctx, VerifyRequest{PaymentID: "bogus-123"})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	_, err = v.Verify(ctx, VerifyRequest{PaymentID: "PAY-FAIL-42"})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestReferenceVerifier(t *testing.T) {
	var gotBody map[string]interface{}
	status := gatewayStatus{Captured: true, Consumed: false}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(status)
	}))
	defer srv.Close()

	v := &ReferenceVerifier{GatewayURL: srv.URL, Client: srv.Client()}
	ctx := context.Background()

	ref, err := v.Verify(ctx, VerifyRequest{PaymentID: "pay_ok", AmountCents: 2500})
	require.NoError(t, err)
	assert.Equal(t, "pay_ok", ref)
	assert.Equal(t, "pay_ok", gotBody["payment_id"])
	assert.Equal(t, float64(2500), gotBody["amount_cents"])

	status = gatewayStatus{Captured: false}
	_, err = v.Verify(ctx, VerifyRequest{PaymentID: "pay_uncaptured"})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	status = gatewayStatus{Captured: true, Consumed: true}
	_, err = v.Verify(ctx, VerifyRequest{PaymentID: "pay_reused"})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	// Prefix check happens before any network traffic.
	_, err = v.Verify(ctx, VerifyRequest{PaymentID: "nope"})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestReferenceVerifierGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v := &ReferenceVerifier{GatewayURL: srv.URL, Client: srv.Client()}
	_, err := v.Verify(context.Background(), VerifyRequest{PaymentID: "pay_x"})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestReferenceVerifierGatewayUnreachable(t *testing.T) {
	v := &ReferenceVerifier{
		GatewayURL: "http://127.0.0.1:1",
		Client:     &http.Client{Timeout: 200 * time.Millisecond},
	}
	_, err := v.Verify(context.Background(), VerifyRequest{PaymentID: "pay_x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrVerificationFailed, "transport failures are not verification verdicts")
}

func TestSignedCallbackVerifier(t *testing.T) {
	v := &SignedCallbackVerifier{Secret: []byte("topsecret")}
	ctx := context.Background()

	sig := v.Sign("ord_123", "pay_456")
	ref, err := v.Verify(ctx, VerifyRequest{OrderID: "ord_123", PaymentID: "pay_456", Signature: sig})
	require.NoError(t, err)
	assert.Equal(t, "pay_456", ref)

	// Tampered payment id.
	_, err = v.Verify(ctx, VerifyRequest{OrderID: "ord_123", PaymentID: "pay_457", Signature: sig})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	// Tampered signature.
	_, err = v.Verify(ctx, VerifyRequest{OrderID: "ord_123", PaymentID: "pay_456", Signature: sig[:len(sig)-1] + "0"})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	// Wrong secret produces a different signature.
	other := &SignedCallbackVerifier{Secret: []byte("othersecret")}
	_, err = v.Verify(ctx, VerifyRequest{OrderID: "ord_123", PaymentID: "pay_456", Signature: other.Sign("ord_123", "pay_456")})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	// Missing fields.
	_, err = v.Verify(ctx, VerifyRequest{PaymentID: "pay_456", Signature: sig})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}
