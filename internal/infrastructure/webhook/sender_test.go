package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() Config {
	return Config{
		RequestTimeout: time.Second,
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
	}
}

func testEnvelope() Envelope {
	return Envelope{
		EventID:   "evt-1",
		EventType: "payout.completed",
		Timestamp: time.Now().UTC(),
		Data:      json.RawMessage(`{"amount":"50000"}`),
	}
}

func TestSender_SignsBody(t *testing.T) {
	const secret = "whsec_test"

	var gotBody []byte
	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewSender(testConfig(), zap.NewNop())
	require.NoError(t, sender.Send(context.Background(), srv.URL, secret, testEnvelope()))

	require.NotEmpty(t, gotSignature)
	assert.True(t, VerifySignature(gotBody, secret, gotSignature))
	assert.False(t, VerifySignature(gotBody, "wrong-secret", gotSignature))

	var envelope Envelope
	require.NoError(t, json.Unmarshal(gotBody, &envelope))
	assert.Equal(t, "evt-1", envelope.EventID)
	assert.Equal(t, "payout.completed", envelope.EventType)
}

func TestSender_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewSender(testConfig(), zap.NewNop())
	require.NoError(t, sender.Send(context.Background(), srv.URL, "s", testEnvelope()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSender_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewSender(testConfig(), zap.NewNop())
	err := sender.Send(context.Background(), srv.URL, "s", testEnvelope())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestSender_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewSender(testConfig(), zap.NewNop())
	err := sender.Send(context.Background(), srv.URL, "s", testEnvelope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}
