package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
)

func TestTxManager_BeginCommit(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	manager := newTxManagerWithPool(mock)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Deferred rollback after a commit must not reach the database.
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback after commit: %v", err)
	}

	assertExpectations(t, mock)
}

func TestTxManager_BeginError(t *testing.T) {
	mock := newMockPool(t)
	boom := errors.New("too many connections")
	mock.ExpectBegin().WillReturnError(boom)

	manager := newTxManagerWithPool(mock)
	tx, err := manager.Begin(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}

	assertExpectations(t, mock)
}

func TestTx_Rollback(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	manager := newTxManagerWithPool(mock)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("second Rollback: %v", err)
	}

	assertExpectations(t, mock)
}

func TestTx_RollbackClosed(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	manager := newTxManagerWithPool(mock)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("expected closed tx to roll back cleanly, got %v", err)
	}

	assertExpectations(t, mock)
}

func TestULIDGenerator_UTCAndMonotonic(t *testing.T) {
	at := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.FixedZone("EET", 2*60*60))
	gen := newULIDGenerator(func() time.Time { return at })

	prev := ""
	for i := 0; i < 100; i++ {
		id := gen.Generate()

		parsed, err := ulid.ParseStrict(id)
		if err != nil {
			t.Fatalf("ParseStrict(%q): %v", id, err)
		}
		if got := ulid.Time(parsed.Time()); !got.Equal(at) {
			t.Fatalf("id %s carries %v, want %v", id, got, at.UTC())
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %s after %s", id, prev)
		}
		prev = id
	}
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
