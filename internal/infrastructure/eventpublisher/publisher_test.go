package eventpublisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
	"github.com/iho/partnerledger/internal/usecase"
)

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: domain.EventTypeTransactionAppended}},
	}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents failed: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.published))
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-1" {
		t.Fatalf("expected event to be marked published, got %#v", repo.marked)
	}
}

func TestProcessEventsContinuesOnPublishError(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: domain.EventTypeTransactionAppended},
			{ID: "evt-2", EventType: domain.EventTypeTransactionCompleted},
		},
	}
	pub := &stubPublisher{
		errorsByID: map[string]error{"evt-1": errors.New("fail")},
	}
	ep := newTestPublisher(repo, pub)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents returned error: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", pub.published)
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to be marked, got %#v", repo.marked)
	}
}

func TestProcessEventsRecordsMetrics(t *testing.T) {
	m := metrics.New()
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: domain.EventTypePaymentRecorded},
			{ID: "evt-2", EventType: domain.EventTypePaymentRecorded},
			{ID: "evt-3", EventType: domain.EventTypePaymentCompleted},
		},
	}
	pub := &stubPublisher{errorsByID: map[string]error{"evt-3": errors.New("broker down")}}
	ep := newTestPublisher(repo, pub)
	ep.metrics = m

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents returned error: %v", err)
	}

	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues(domain.EventTypePaymentRecorded)); got != 2 {
		t.Errorf("expected 2 published, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventPublishErrors.WithLabelValues(domain.EventTypePaymentCompleted)); got != 1 {
		t.Errorf("expected 1 publish error, got %v", got)
	}
	if got := testutil.ToFloat64(m.OutboxBatchSize); got != 3 {
		t.Errorf("expected batch size 3, got %v", got)
	}
}

func TestProcessEventsSkipsMarkFailures(t *testing.T) {
	repo := &stubOutboxRepo{
		events:  []*domain.OutboxEvent{{ID: "evt-1"}, {ID: "evt-2"}},
		markErr: errors.New("connection reset"),
	}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents returned error: %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("expected both events published, got %d", len(pub.published))
	}
}

func TestProcessEventsReturnsFetchError(t *testing.T) {
	boom := errors.New("pool closed")
	ep := newTestPublisher(&stubOutboxRepo{}, &stubPublisher{})
	ep.outboxRepo = &failingOutboxRepo{err: boom}

	if err := ep.processEvents(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestPurgePublishedUsesRetention(t *testing.T) {
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, &stubPublisher{})
	ep.retention = 24 * time.Hour
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	ep.now = func() time.Time { return now }

	if err := ep.purgePublished(context.Background()); err != nil {
		t.Fatalf("purgePublished: %v", err)
	}

	if len(repo.purgedUntil) != 1 || !repo.purgedUntil[0].Equal(now.Add(-24*time.Hour)) {
		t.Fatalf("unexpected purge cutoff %v", repo.purgedUntil)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)
	ep.interval = 10 * time.Millisecond
	ep.retention = time.Hour
	ep.purgeInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestLogPublisherWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))

	err := p.Publish(context.Background(), &domain.OutboxEvent{
		ID:          "evt-1",
		EventType:   domain.EventTypeTransactionAppended,
		AggregateID: "w1",
		Payload:     map[string]any{"amount": 10},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["event_id"] != "evt-1" || line["aggregate_id"] != "w1" {
		t.Errorf("unexpected log line %v", line)
	}
	if payload, ok := line["payload"].(map[string]any); !ok || payload["amount"] != float64(10) {
		t.Errorf("unexpected payload %v", line["payload"])
	}
}

func TestKafkaPublisherWritesKeyedEnvelope(t *testing.T) {
	w := &stubWriter{}
	p := NewKafkaPublisher(w)

	created := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	event := &domain.OutboxEvent{
		ID:            "evt-9",
		EventType:     domain.EventTypeTransactionCompleted,
		AggregateType: domain.AggregateTypeWallet,
		AggregateID:   "wallet-1",
		Payload:       map[string]any{"transaction_id": "t1"},
		CreatedAt:     created,
	}

	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(w.messages))
	}
	msg := w.messages[0]
	if string(msg.Key) != "wallet-1" || !msg.Time.Equal(created) {
		t.Errorf("unexpected message key/time %q %v", msg.Key, msg.Time)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.ID != "evt-9" || env.EventType != domain.EventTypeTransactionCompleted || env.Payload["transaction_id"] != "t1" {
		t.Errorf("unexpected envelope %+v", env)
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event_id"] != "evt-9" || headers["event_type"] != domain.EventTypeTransactionCompleted {
		t.Errorf("unexpected headers %v", headers)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("expected writer to be closed, err=%v", err)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewKafkaPublisher(&stubWriter{err: boom})

	err := p.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func newTestPublisher(repo *stubOutboxRepo, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events      []*domain.OutboxEvent
	marked      []string
	purgedUntil []time.Time
	markErr     error
}

func (s *stubOutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if len(s.events) <= limit {
		return append([]*domain.OutboxEvent(nil), s.events...), nil
	}
	return append([]*domain.OutboxEvent(nil), s.events[:limit]...), nil
}

func (s *stubOutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubOutboxRepo) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (s *stubOutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	s.purgedUntil = append(s.purgedUntil, before)
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

type failingOutboxRepo struct {
	stubOutboxRepo
	err error
}

func (f *failingOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return nil, f.err
}

type stubWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (s *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}
