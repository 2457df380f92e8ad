package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	received   []shared.DomainEvent
	err        error
	panics     bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	h.received = append(h.received, event)
	h.mu.Unlock()
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func paymentEvent() *ledger.PaymentReceivedEvent {
	return &ledger.PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventPaymentReceived, "Payment", uuid.New()),
		CustomerID:      uuid.New(),
	}
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	payments := &recordingHandler{eventTypes: []string{ledger.EventPaymentReceived}}
	invoices := &recordingHandler{eventTypes: []string{ledger.EventInvoicePaid}}
	audit := &recordingHandler{}

	bus.Subscribe(payments)
	bus.Subscribe(invoices)
	bus.Subscribe(audit)

	require.NoError(t, bus.Publish(context.Background(), paymentEvent()))

	assert.Equal(t, 1, payments.count())
	assert.Equal(t, 0, invoices.count())
	assert.Equal(t, 1, audit.count(), "wildcard handler receives all events")
}

func TestInMemoryEventBus_HandlerErrorDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &recordingHandler{
		eventTypes: []string{ledger.EventPaymentReceived},
		err:        errors.New("downstream unavailable"),
	}
	healthy := &recordingHandler{eventTypes: []string{ledger.EventPaymentReceived}}

	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), paymentEvent()))
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_RecoversFromPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	panicking := &recordingHandler{eventTypes: []string{ledger.EventPaymentReceived}, panics: true}
	healthy := &recordingHandler{eventTypes: []string{ledger.EventPaymentReceived}}

	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), paymentEvent())
	})
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := &recordingHandler{eventTypes: []string{ledger.EventPaymentReceived}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), paymentEvent()))
	assert.Equal(t, 0, handler.count())
}
