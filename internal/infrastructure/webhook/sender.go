// Package webhook delivers signed event notifications to supplier endpoints.
// Deliveries run from the outbox processor's event bus, never inside a ledger
// transaction, so a slow or failing endpoint cannot roll back financial state.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds webhook delivery settings
type Config struct {
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
}

// DefaultConfig returns default delivery settings
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 10 * time.Second,
		MaxAttempts:    3,
		RetryDelay:     30 * time.Second,
	}
}

// Sender posts JSON payloads to supplier webhook endpoints with an
// HMAC-SHA256 signature over the body.
type Sender struct {
	client *http.Client
	config Config
	logger *zap.Logger
}

// NewSender creates a webhook sender
func NewSender(config Config, logger *zap.Logger) *Sender {
	return &Sender{
		client: &http.Client{Timeout: config.RequestTimeout},
		config: config,
		logger: logger,
	}
}

// Envelope is the wire format delivered to supplier endpoints
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Send delivers the envelope to url, signing the body with secret. Retries
// transport errors and 5xx responses up to MaxAttempts; 4xx responses are
// treated as permanent failures.
func (s *Sender) Send(ctx context.Context, url, secret string, envelope Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal webhook envelope: %w", err)
	}

	signature := Sign(body, secret)

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}

		retryable, err := s.post(ctx, url, signature, body)
		if err == nil {
			s.logger.Debug("webhook delivered",
				zap.String("url", url),
				zap.String("event_id", envelope.EventID),
				zap.Int("attempt", attempt),
			)
			return nil
		}

		lastErr = err
		if !retryable {
			return fmt.Errorf("webhook rejected by %s: %w", url, err)
		}

		s.logger.Warn("webhook delivery failed",
			zap.String("url", url),
			zap.String("event_id", envelope.EventID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return fmt.Errorf("webhook delivery to %s exhausted %d attempts: %w", url, s.config.MaxAttempts, lastErr)
}

func (s *Sender) post(ctx context.Context, url, signature string, body []byte) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)

	resp, err := s.client.Do(req)
	if err != nil {
		return true, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
}

// Sign computes the hex-encoded HMAC-SHA256 of body under secret
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secret.
// Comparison is constant time.
func VerifySignature(body []byte, secret, signature string) bool {
	expected, err := hex.DecodeString(Sign(body, secret))
	if err != nil {
		return false
	}
	actual, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, actual)
}
