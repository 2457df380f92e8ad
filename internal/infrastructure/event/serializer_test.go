package event

import (
	"testing"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainEventSerializer_RegistersAllTypes(t *testing.T) {
	s := NewDomainEventSerializer()

	for _, eventType := range []string{
		ledger.EventInvoiceCreated,
		ledger.EventInvoicePaid,
		ledger.EventInvoiceOverdue,
		ledger.EventPaymentReceived,
		ledger.EventPayoutCompleted,
		partner.EventCustomerRegistered,
		partner.EventCustomerApproved,
		partner.EventCreditLimitAdjusted,
		partner.EventBusinessCustomerLinked,
	} {
		assert.True(t, s.IsRegistered(eventType), "expected %s to be registered", eventType)
	}
	assert.Len(t, s.RegisteredTypes(), 9)
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewDomainEventSerializer()

	invoiceID := uuid.New()
	original := &ledger.InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventInvoicePaid, "Invoice", invoiceID),
		BusinessID:      uuid.New(),
		TotalAmount:     decimal.NewFromInt(60500),
		PaidAmount:      decimal.NewFromInt(60500),
	}

	data, err := s.Serialize(original)
	require.NoError(t, err)

	restored, err := s.Deserialize(ledger.EventInvoicePaid, data)
	require.NoError(t, err)

	paid, ok := restored.(*ledger.InvoicePaidEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), paid.EventID())
	assert.Equal(t, invoiceID, paid.AggregateID())
	assert.Equal(t, "Invoice", paid.AggregateType())
	assert.True(t, paid.TotalAmount.Equal(decimal.NewFromInt(60500)))
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()

	_, err := s.Deserialize("invoice.archived", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_InvalidPayload(t *testing.T) {
	s := NewDomainEventSerializer()

	_, err := s.Deserialize(ledger.EventInvoicePaid, []byte(`not json`))
	require.Error(t, err)
}
