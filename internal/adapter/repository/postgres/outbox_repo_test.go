package postgres

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
)

var outboxColumns = []string{
	"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published",
}

var kyiv = time.FixedZone("EET", 2*60*60)

func TestOutboxRepository_Create_StoresUTC(t *testing.T) {
	mock := newMockPool(t)
	tx := beginMockTx(t, mock)
	repo := newOutboxRepository(mock)

	at := time.Date(2024, time.March, 5, 12, 0, 0, 0, kyiv)
	mock.ExpectQuery(q("INSERT INTO outbox_events")).
		WithArgs("e1", "w1", "wallet", "wallet.credited", []byte(`{"amount":100}`), ts(at.UTC()), false).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("e1", "w1", "wallet", "wallet.credited", []byte(`{"amount":100}`), ts(at), nil, false))

	event := &domain.OutboxEvent{
		ID: "e1", AggregateID: "w1", AggregateType: "wallet", EventType: "wallet.credited",
		Payload: map[string]any{"amount": 100}, CreatedAt: at,
	}
	if err := repo.Create(context.Background(), tx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if event.CreatedAt.Location() != time.UTC || !event.CreatedAt.Equal(at) {
		t.Errorf("expected stored UTC time, got %v", event.CreatedAt)
	}

	assertExpectations(t, mock)
}

func TestOutboxRepository_GetUnpublished(t *testing.T) {
	mock := newMockPool(t)
	repo := newOutboxRepository(mock)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	at := time.Date(2024, time.March, 5, 12, 0, 0, 0, kyiv)
	mock.ExpectQuery(q("FOR UPDATE SKIP LOCKED")).
		WithArgs(int32(10)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("e1", "t1", "transaction", "transaction.completed", []byte(`{"status":"completed"}`), ts(at), nil, false).
			AddRow("e2", "t2", "transaction", "transaction.completed", []byte(`{"status":`), ts(at), nil, false))

	events, err := repo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("GetUnpublished: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if events[0].CreatedAt.Location() != time.UTC || !events[0].CreatedAt.Equal(at) {
		t.Errorf("expected UTC created_at, got %v", events[0].CreatedAt)
	}
	if events[0].Payload["status"] != "completed" || events[0].PublishedAt != nil {
		t.Errorf("unexpected first event %+v", events[0])
	}

	// A corrupt payload is dropped, not fatal for the batch.
	if events[1].ID != "e2" || events[1].Payload != nil {
		t.Errorf("unexpected second event %+v", events[1])
	}
	if !strings.Contains(buf.String(), `"event_id":"e2"`) {
		t.Errorf("expected a decode warning for e2, got %q", buf.String())
	}

	assertExpectations(t, mock)
}

func TestOutboxRepository_MarkPublishedAndPurge_UTC(t *testing.T) {
	mock := newMockPool(t)
	repo := newOutboxRepository(mock)

	at := time.Date(2024, time.March, 5, 12, 0, 0, 0, kyiv)
	mock.ExpectExec(q("UPDATE outbox_events SET published = TRUE")).
		WithArgs("e1", ts(at.UTC())).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(q("DELETE FROM outbox_events")).
		WithArgs(ts(at.UTC())).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	if err := repo.MarkPublished(context.Background(), "e1", at); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	if err := repo.DeletePublished(context.Background(), at); err != nil {
		t.Fatalf("DeletePublished: %v", err)
	}

	assertExpectations(t, mock)
}
