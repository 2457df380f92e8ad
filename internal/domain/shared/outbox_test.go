package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxEntry(t *testing.T) {
	invoiceID := uuid.New()
	event := NewBaseDomainEvent("invoice.created", "Invoice", invoiceID)
	entry := NewOutboxEntry(&event, []byte(`{"id":"inv-1"}`))

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, event.EventID(), entry.EventID)
	assert.Equal(t, "invoice.created", entry.EventType)
	assert.Equal(t, "Invoice", entry.AggregateType)
	assert.Equal(t, invoiceID, entry.AggregateID)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
}

func TestOutboxEntryLifecycle(t *testing.T) {
	event := NewBaseDomainEvent("invoice.paid", "Invoice", uuid.New())
	entry := NewOutboxEntry(&event, []byte(`{}`))

	require.NoError(t, entry.MarkProcessing())
	assert.Equal(t, OutboxStatusProcessing, entry.Status)

	entry.MarkSent()
	assert.Equal(t, OutboxStatusSent, entry.Status)
	require.NotNil(t, entry.ProcessedAt)
}

func TestOutboxEntryMarkProcessingGuard(t *testing.T) {
	event := NewBaseDomainEvent("invoice.paid", "Invoice", uuid.New())
	entry := NewOutboxEntry(&event, []byte(`{}`))

	entry.MarkSent()
	assert.Error(t, entry.MarkProcessing(), "sent entries cannot be reprocessed")
}

func TestOutboxEntryRetryBackoff(t *testing.T) {
	event := NewBaseDomainEvent("invoice.overdue", "Invoice", uuid.New())
	entry := NewOutboxEntry(&event, []byte(`{}`))

	entry.MarkFailed("connection refused")
	assert.Equal(t, OutboxStatusFailed, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	assert.Equal(t, "connection refused", entry.LastError)
	assert.True(t, entry.CanRetry())
	require.NotNil(t, entry.NextRetryAt)

	firstRetry := *entry.NextRetryAt
	entry.MarkFailed("connection refused")
	assert.Equal(t, 2, entry.RetryCount)
	// backoff doubles with each failure
	assert.True(t, entry.NextRetryAt.After(firstRetry))
}

func TestOutboxEntryDeadLetter(t *testing.T) {
	event := NewBaseDomainEvent("invoice.overdue", "Invoice", uuid.New())
	entry := NewOutboxEntry(&event, []byte(`{}`))

	for i := 0; i < DefaultMaxRetries; i++ {
		entry.MarkFailed("still failing")
	}

	assert.Equal(t, OutboxStatusDead, entry.Status)
	assert.True(t, entry.IsDead())
	assert.False(t, entry.CanRetry())
}

func TestOutboxEntryResetForRetry(t *testing.T) {
	event := NewBaseDomainEvent("invoice.created", "Invoice", uuid.New())
	entry := NewOutboxEntry(&event, []byte(`{}`))

	assert.Error(t, entry.ResetForRetry(), "only dead entries can be reset")

	for i := 0; i < DefaultMaxRetries; i++ {
		entry.MarkFailed("boom")
	}
	require.True(t, entry.IsDead())

	require.NoError(t, entry.ResetForRetry())
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Nil(t, entry.NextRetryAt)
}
