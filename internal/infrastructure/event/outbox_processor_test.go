package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOutboxRepository keeps entries in a map, enough to drive the processor
type fakeOutboxRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newFakeOutboxRepository() *fakeOutboxRepository {
	return &fakeOutboxRepository{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && !e.NextRetryAt.After(before) && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, id := range ids {
		if e, ok := r.entries[id]; ok {
			e.Status = shared.OutboxStatusProcessing
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (r *fakeOutboxRepository) get(id uuid.UUID) *shared.OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

func newProcessorFixture(t *testing.T) (*OutboxProcessor, *fakeOutboxRepository, *InMemoryEventBus) {
	t.Helper()
	repo := newFakeOutboxRepository()
	bus := NewInMemoryEventBus(zap.NewNop())
	serializer := NewDomainEventSerializer()
	proc := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
	return proc, repo, bus
}

func pendingEntry(t *testing.T, serializer *EventSerializer) *shared.OutboxEntry {
	t.Helper()
	event := paymentEvent()
	payload, err := serializer.Serialize(event)
	require.NoError(t, err)
	return shared.NewOutboxEntry(event, payload)
}

func TestOutboxProcessor_DeliversPendingEntry(t *testing.T) {
	proc, repo, bus := newProcessorFixture(t)

	handler := &recordingHandler{eventTypes: []string{ledger.EventPaymentReceived}}
	bus.Subscribe(handler)

	entry := pendingEntry(t, proc.serializer)
	require.NoError(t, repo.Save(context.Background(), entry))

	proc.ProcessBatch(context.Background())

	assert.Equal(t, 1, handler.count())
	stored := repo.get(entry.ID)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestOutboxProcessor_UnknownEventTypeFails(t *testing.T) {
	proc, repo, _ := newProcessorFixture(t)

	entry := pendingEntry(t, proc.serializer)
	entry.EventType = "invoice.archived"
	require.NoError(t, repo.Save(context.Background(), entry))

	proc.ProcessBatch(context.Background())

	stored := repo.get(entry.ID)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.NotNil(t, stored.NextRetryAt)
	assert.Contains(t, stored.LastError, "unknown event type")
}

func TestOutboxProcessor_MovesToDeadLetterAfterMaxRetries(t *testing.T) {
	proc, repo, _ := newProcessorFixture(t)

	entry := pendingEntry(t, proc.serializer)
	entry.EventType = "invoice.archived"
	entry.RetryCount = entry.MaxRetries - 1
	require.NoError(t, repo.Save(context.Background(), entry))

	proc.ProcessBatch(context.Background())

	stored := repo.get(entry.ID)
	assert.Equal(t, shared.OutboxStatusDead, stored.Status)
	assert.True(t, stored.IsDead())
}

func TestOutboxProcessor_RetriesDueFailedEntry(t *testing.T) {
	proc, repo, bus := newProcessorFixture(t)

	handler := &recordingHandler{eventTypes: []string{ledger.EventPaymentReceived}}
	bus.Subscribe(handler)

	entry := pendingEntry(t, proc.serializer)
	entry.Status = shared.OutboxStatusFailed
	entry.RetryCount = 1
	due := time.Now().Add(-time.Second)
	entry.NextRetryAt = &due
	require.NoError(t, repo.Save(context.Background(), entry))

	proc.ProcessBatch(context.Background())

	assert.Equal(t, 1, handler.count())
	assert.Equal(t, shared.OutboxStatusSent, repo.get(entry.ID).Status)
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	proc, repo, _ := newProcessorFixture(t)

	old := pendingEntry(t, proc.serializer)
	old.MarkSent()
	stale := time.Now().Add(-30 * 24 * time.Hour)
	old.ProcessedAt = &stale
	require.NoError(t, repo.Save(context.Background(), old))

	fresh := pendingEntry(t, proc.serializer)
	require.NoError(t, repo.Save(context.Background(), fresh))

	proc.cleanup(context.Background())

	assert.Nil(t, repo.get(old.ID))
	assert.NotNil(t, repo.get(fresh.ID))
}

func TestOutboxPublisher_SaveEventsRejectsNonGormTx(t *testing.T) {
	p := NewOutboxPublisher(NewDomainEventSerializer())

	err := p.SaveEvents(context.Background(), "not a tx", paymentEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "*gorm.DB")
}
